// Package router holds the GET and POST route tables.
//
// Matching is by exact path string only: no trailing-slash normalization,
// no wildcards, no prefixes.
package router

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"easyserver/internal/errors"
	"easyserver/internal/params"
	"easyserver/internal/session"
)

// Handler produces the HTML body for a dynamic route
type Handler interface {
	Invoke(sess *session.Session, p params.Params) (string, error)
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(sess *session.Session, p params.Params) (string, error)

// Invoke calls f
func (f HandlerFunc) Invoke(sess *session.Session, p params.Params) (string, error) {
	return f(sess, p)
}

// Route identifies one registered handler
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Table maps (method, path) to handlers
type Table struct {
	mu   sync.RWMutex
	get  map[string]Handler
	post map[string]Handler
}

// NewTable creates an empty route table
func NewTable() *Table {
	return &Table{
		get:  make(map[string]Handler),
		post: make(map[string]Handler),
	}
}

func (t *Table) tableFor(method string) map[string]Handler {
	switch method {
	case http.MethodGet:
		return t.get
	case http.MethodPost:
		return t.post
	default:
		return nil
	}
}

// Register binds h to (method, path), replacing any earlier handler.
// Only GET and POST are accepted.
func (t *Table) Register(method, path string, h Handler) error {
	if fn, ok := h.(HandlerFunc); h == nil || (ok && fn == nil) {
		return errors.New(errors.InternalError, fmt.Sprintf("nil handler for %s %s", method, path), nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	routes := t.tableFor(method)
	if routes == nil {
		return errors.New(errors.UnsupportedMethod, fmt.Sprintf("cannot register %s %s: only GET and POST are routed", method, path), nil)
	}
	routes[path] = h
	return nil
}

// HandleGet registers fn for GET path
func (t *Table) HandleGet(path string, fn HandlerFunc) error {
	return t.Register(http.MethodGet, path, fn)
}

// HandlePost registers fn for POST path
func (t *Table) HandlePost(path string, fn HandlerFunc) error {
	return t.Register(http.MethodPost, path, fn)
}

// Lookup returns the handler for (method, path)
func (t *Table) Lookup(method, path string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	routes := t.tableFor(method)
	if routes == nil {
		return nil, false
	}
	h, ok := routes[path]
	return h, ok
}

// Routes lists every registered route, GET first, each group sorted by path
func (t *Table) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Route, 0, len(t.get)+len(t.post))
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		paths := make([]string, 0)
		for p := range t.tableFor(method) {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			out = append(out, Route{Method: method, Path: p})
		}
	}
	return out
}
