package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionKV implements session.KV on the session_kv table.
//
// Each write is a single upsert statement, so concurrent processes sharing
// the database resolve conflicting writes as last writer wins.
type SessionKV struct {
	db *sql.DB
}

// NewSessionKV creates a SessionKV over the given database connection
func NewSessionKV(db *sql.DB) *SessionKV {
	return &SessionKV{db: db}
}

// Get reads the value for key. The second return reports presence.
func (s *SessionKV) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session_kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes the value for key, overwriting any existing entry.
func (s *SessionKV) Set(key, value string) error {
	query := `
		INSERT INTO session_kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (s *SessionKV) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM session_kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete session key %s: %w", key, err)
	}
	return nil
}
