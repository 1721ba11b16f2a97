package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Lookup for ids the store does not know
var ErrNotFound = errors.New("session not found")

// Store maps session ids to sessions for the life of the process.
// Implementations must be safe for concurrent use.
type Store interface {
	// Lookup returns the session registered under id. It never inserts.
	Lookup(ctx context.Context, id string) (*Session, error)
	// Register makes s reachable under s.ID
	Register(ctx context.Context, s *Session) error
	// Save persists the current attributes of a registered session
	Save(ctx context.Context, s *Session) error
	// Len returns the number of registered sessions
	Len() int
	// Clear drops every session
	Clear(ctx context.Context) error
	Close() error
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Lookup returns the session registered under id
func (m *MemoryStore) Lookup(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Register stores s under s.ID, replacing any previous entry
func (m *MemoryStore) Register(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Save is a no-op: sessions are held by reference
func (m *MemoryStore) Save(context.Context, *Session) error {
	return nil
}

// Len returns the number of registered sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Clear drops every session
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
	return nil
}

// Close releases nothing
func (m *MemoryStore) Close() error {
	return nil
}
