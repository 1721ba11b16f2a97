// Package session keeps per-client state keyed by an opaque cookie value.
//
// A Session is created by the dispatcher the first time a client reaches a
// dynamic handler without a recognized cookie. Lookups never create entries;
// only Register does.
package session

import (
	"sort"
	"sync"
	"time"
)

// Session is an application-defined attribute bag bound to one cookie value
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.RWMutex
	attrs map[string]any
}

// New creates an empty session with the given id
func New(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		attrs:     make(map[string]any),
	}
}

func restore(id string, createdAt time.Time, attrs map[string]any) *Session {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &Session{ID: id, CreatedAt: createdAt, attrs: attrs}
}

// Get returns the attribute stored under key
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[key]
	return v, ok
}

// Set stores value under key
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[key] = value
}

// Delete removes key; deleting an absent key is a no-op
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attrs, key)
}

// Attributes returns a copy of all attributes
func (s *Session) Attributes() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in sorted order
func (s *Session) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
