package session

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"easyserver/internal/storage"
)

// SQLiteStore persists sessions so they survive a restart.
//
// Rows are keyed by blake2b-256 of the id; the cookie value itself is never
// written to disk. Sessions already loaded are cached so that repeated
// lookups of one id return the same *Session. Attributes are stored as JSON,
// so values read back after a restart have JSON types (numbers are float64).
type SQLiteStore struct {
	db     *storage.DB
	logger *slog.Logger

	mu   sync.RWMutex
	live map[string]*Session
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store on an open database
func NewSQLiteStore(db *storage.DB, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger,
		live:   make(map[string]*Session),
	}
}

// OpenSQLiteStore opens (or creates) the database at path and wraps it
func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := storage.Open(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	logger.Debug("Session store opened", "path", db.Path())
	return NewSQLiteStore(db, logger), nil
}

func hashID(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached session for id, loading it from disk on first use
func (s *SQLiteStore) Lookup(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	var attrsJSON, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT attributes, created_at FROM sessions WHERE id_hash = ?`, hashID(id),
	).Scan(&attrsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
		return nil, fmt.Errorf("decode session attributes: %w", err)
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		s.logger.Warn("Session has unparseable created_at", "error", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have loaded it while the lock was released
	if existing, ok := s.live[id]; ok {
		return existing, nil
	}
	sess = restore(id, created, attrs)
	s.live[id] = sess
	return sess, nil
}

// Register inserts a row for sess and caches it
func (s *SQLiteStore) Register(ctx context.Context, sess *Session) error {
	attrsJSON, err := json.Marshal(sess.Attributes())
	if err != nil {
		return fmt.Errorf("encode session attributes: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id_hash, attributes, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id_hash) DO UPDATE SET attributes = excluded.attributes, updated_at = excluded.updated_at
	`, hashID(sess.ID), string(attrsJSON), sess.CreatedAt.UTC().Format(time.RFC3339), now)
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}

	s.mu.Lock()
	s.live[sess.ID] = sess
	s.mu.Unlock()
	return nil
}

// Save writes the current attributes of sess
func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	attrsJSON, err := json.Marshal(sess.Attributes())
	if err != nil {
		return fmt.Errorf("encode session attributes: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET attributes = ?, updated_at = ? WHERE id_hash = ?`,
		string(attrsJSON), time.Now().UTC().Format(time.RFC3339), hashID(sess.ID),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Len returns the number of persisted sessions
func (s *SQLiteStore) Len() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		s.logger.Warn("Failed to count sessions", "error", err.Error())
		return 0
	}
	return n
}

// Clear deletes every session row and empties the cache
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	s.mu.Lock()
	s.live = make(map[string]*Session)
	s.mu.Unlock()
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
