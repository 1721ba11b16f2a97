package router

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	toml "github.com/pelletier/go-toml/v2"

	"easyserver/internal/params"
	"easyserver/internal/session"
)

// ManifestFile is the default name of the route manifest
const ManifestFile = "routes.toml"

// Manifest declares routes whose bodies are text/template sources.
//
//	[[route]]
//	method = "GET"
//	path = "/api/test"
//	body = "API1: {{ param \"a\" }}"
type Manifest struct {
	Routes []RouteDeclaration `toml:"route"`
}

// RouteDeclaration is one [[route]] entry
type RouteDeclaration struct {
	Method      string `toml:"method" json:"method"`
	Path        string `toml:"path" json:"path"`
	Body        string `toml:"body" json:"body"`
	Description string `toml:"description,omitempty" json:"description,omitempty"`
}

// LoadManifest reads and validates a manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest TOML
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i := range m.Routes {
		m.Routes[i].Method = strings.ToUpper(strings.TrimSpace(m.Routes[i].Method))
		if m.Routes[i].Method == "" {
			m.Routes[i].Method = "GET"
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every declaration
func (m *Manifest) Validate() error {
	seen := make(map[Route]bool)
	for i, r := range m.Routes {
		if r.Method != "GET" && r.Method != "POST" {
			return fmt.Errorf("route %d: method %q is not GET or POST", i, r.Method)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route %d: path %q must start with /", i, r.Path)
		}
		key := Route{Method: r.Method, Path: r.Path}
		if seen[key] {
			return fmt.Errorf("route %d: duplicate %s %s", i, r.Method, r.Path)
		}
		seen[key] = true
	}
	return nil
}

// Apply compiles every declaration and registers it on t
func (m *Manifest) Apply(t *Table) error {
	for _, r := range m.Routes {
		h, err := NewTemplateHandler(r.Method+" "+r.Path, r.Body)
		if err != nil {
			return err
		}
		if err := t.Register(r.Method, r.Path, h); err != nil {
			return err
		}
	}
	return nil
}

// TemplateHandler renders a text/template for each request.
//
// Available functions: param (required, missing is an error), optional
// (with default), session (read attribute) and setSession (write attribute).
type TemplateHandler struct {
	tmpl *template.Template
}

// templateData is the dot value of a route template
type templateData struct {
	Params    params.Params
	SessionID string
}

// placeholders declare the function names at parse time; each request
// binds real closures on a clone.
var placeholders = template.FuncMap{
	"param":      func(string) (string, error) { return "", nil },
	"optional":   func(string, string) string { return "" },
	"session":    func(string) any { return nil },
	"setSession": func(string, any) string { return "" },
}

// NewTemplateHandler parses body as a route template
func NewTemplateHandler(name, body string) (*TemplateHandler, error) {
	tmpl, err := template.New(name).Funcs(placeholders).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse template for %s: %w", name, err)
	}
	return &TemplateHandler{tmpl: tmpl}, nil
}

// Invoke renders the template against the request's params and session
func (h *TemplateHandler) Invoke(sess *session.Session, p params.Params) (string, error) {
	tmpl, err := h.tmpl.Clone()
	if err != nil {
		return "", err
	}
	tmpl.Funcs(template.FuncMap{
		"param": p.Require,
		"optional": func(key, def string) string {
			return p.GetDefault(key, def)
		},
		"session": func(key string) any {
			if sess == nil {
				return ""
			}
			v, ok := sess.Get(key)
			if !ok {
				return ""
			}
			return v
		},
		"setSession": func(key string, value any) string {
			if sess != nil {
				sess.Set(key, value)
			}
			return ""
		},
	})

	data := templateData{Params: p}
	if sess != nil {
		data.SessionID = sess.ID
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
