package router

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyserver/internal/errors"
	"easyserver/internal/params"
	"easyserver/internal/session"
)

func echo(prefix, key string) HandlerFunc {
	return func(_ *session.Session, p params.Params) (string, error) {
		return prefix + p.Must(key), nil
	}
}

func TestTable_RegisterAndLookup(t *testing.T) {
	table := NewTable()
	table.HandleGet("/api/test", echo("API1: ", "a"))
	table.HandlePost("/api/test2", echo("API2: ", "b"))

	h, ok := table.Lookup(http.MethodGet, "/api/test")
	require.True(t, ok)
	out, err := h.Invoke(nil, params.Parse("a=5"))
	require.NoError(t, err)
	assert.Equal(t, "API1: 5", out)

	_, ok = table.Lookup(http.MethodPost, "/api/test")
	assert.False(t, ok, "GET registration must not leak into POST")

	_, ok = table.Lookup(http.MethodGet, "/api/test2")
	assert.False(t, ok, "POST registration must not leak into GET")
}

func TestTable_ExactMatchOnly(t *testing.T) {
	table := NewTable()
	table.HandleGet("/api/test", echo("", "a"))

	for _, path := range []string{"/api/test/", "/api/tes", "/api/test/x", "/API/TEST", "api/test"} {
		_, ok := table.Lookup(http.MethodGet, path)
		assert.False(t, ok, "path %q must not match /api/test", path)
	}
}

func TestTable_ReplaceHandler(t *testing.T) {
	table := NewTable()
	table.HandleGet("/x", echo("old:", "a"))
	table.HandleGet("/x", echo("new:", "a"))

	h, _ := table.Lookup(http.MethodGet, "/x")
	out, _ := h.Invoke(nil, params.Params{"a": "1"})
	assert.Equal(t, "new:1", out)
	assert.Len(t, table.Routes(), 1)
}

func TestTable_RejectsOtherMethods(t *testing.T) {
	table := NewTable()

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodHead, "get"} {
		err := table.Register(method, "/x", echo("", "a"))
		require.Error(t, err, method)
		assert.Equal(t, errors.UnsupportedMethod, errors.CodeOf(err))

		_, ok := table.Lookup(method, "/x")
		assert.False(t, ok)
	}
}

func TestTable_RejectsNilHandler(t *testing.T) {
	err := NewTable().Register(http.MethodGet, "/x", nil)
	assert.Error(t, err)
}

func TestTable_RejectsNilHandlerFunc(t *testing.T) {
	table := NewTable()

	err := table.HandleGet("/x", nil)
	require.Error(t, err)
	assert.Equal(t, errors.InternalError, errors.CodeOf(err))

	err = table.HandlePost("/x", nil)
	require.Error(t, err)

	_, ok := table.Lookup(http.MethodGet, "/x")
	assert.False(t, ok)
	_, ok = table.Lookup(http.MethodPost, "/x")
	assert.False(t, ok)

	assert.NoError(t, table.HandleGet("/y", echo("", "a")))
	_, ok = table.Lookup(http.MethodGet, "/y")
	assert.True(t, ok)
}

func TestTable_Routes(t *testing.T) {
	table := NewTable()
	table.HandlePost("/b", echo("", "a"))
	table.HandleGet("/z", echo("", "a"))
	table.HandleGet("/a", echo("", "a"))

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/a"},
		{Method: "GET", Path: "/z"},
		{Method: "POST", Path: "/b"},
	}, table.Routes())
}

const sampleManifest = `
[[route]]
method = "get"
path = "/api/test"
body = "API1: {{ param \"a\" }}"

[[route]]
method = "POST"
path = "/api/test2"
body = "API2: {{ param \"b\" }}"

[[route]]
path = "/set"
body = "{{ setSession \"curr\" (param \"curr\") }}set: {{ param \"curr\" }}"

[[route]]
path = "/q"
body = "get: {{ session \"curr\" }} {{ optional \"x\" \"none\" }}"
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Routes, 4)
	assert.Equal(t, "GET", m.Routes[0].Method, "method is upper-cased")
	assert.Equal(t, "GET", m.Routes[2].Method, "method defaults to GET")
}

func TestManifest_Apply(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	table := NewTable()
	require.NoError(t, m.Apply(table))

	get, ok := table.Lookup(http.MethodGet, "/api/test")
	require.True(t, ok)
	out, err := get.Invoke(session.New("s1"), params.Parse("a=5"))
	require.NoError(t, err)
	assert.Equal(t, "API1: 5", out)

	post, ok := table.Lookup(http.MethodPost, "/api/test2")
	require.True(t, ok)
	out, err = post.Invoke(session.New("s1"), params.Parse("b=9"))
	require.NoError(t, err)
	assert.Equal(t, "API2: 9", out)
}

func TestTemplateHandler_MissingParam(t *testing.T) {
	h, err := NewTemplateHandler("GET /api/test", `API1: {{ param "a" }}`)
	require.NoError(t, err)

	_, err = h.Invoke(session.New("s1"), params.Params{})
	require.Error(t, err)
	assert.Equal(t, errors.MissingParameter, errors.CodeOf(err))
}

func TestTemplateHandler_Session(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	table := NewTable()
	require.NoError(t, m.Apply(table))

	sess := session.New("s1")

	set, _ := table.Lookup(http.MethodGet, "/set")
	out, err := set.Invoke(sess, params.Parse("curr=7"))
	require.NoError(t, err)
	assert.Equal(t, "set: 7", out)

	q, _ := table.Lookup(http.MethodGet, "/q")
	out, err = q.Invoke(sess, params.Params{})
	require.NoError(t, err)
	assert.Equal(t, "get: 7 none", out)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[[route]\npath="},
		{"bad method", "[[route]]\nmethod = \"PUT\"\npath = \"/x\"\nbody = \"\""},
		{"relative path", "[[route]]\npath = \"x\"\nbody = \"\""},
		{"duplicate", "[[route]]\npath = \"/x\"\n[[route]]\npath = \"/x\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestManifest_ApplyBadTemplate(t *testing.T) {
	m := &Manifest{Routes: []RouteDeclaration{{Method: "GET", Path: "/x", Body: "{{ param "}}}
	assert.Error(t, m.Apply(NewTable()))
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Routes, 4)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
