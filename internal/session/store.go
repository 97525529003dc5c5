package session

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// The six session keys. Call sites never touch these directly; the Store is
// the only mutation surface over the backing KV.
const (
	keyAccessToken      = "access_token"
	keyAccessExpiresAt  = "access_expires_at"
	keyRefreshToken     = "refresh_token"
	keyRefreshExpiresAt = "refresh_expires_at"
	keyProfile          = "cached_profile"
	keyProfileCachedAt  = "profile_cached_at"
)

var sessionKeys = []string{
	keyAccessToken,
	keyAccessExpiresAt,
	keyRefreshToken,
	keyRefreshExpiresAt,
	keyProfile,
	keyProfileCachedAt,
}

// KV is the injectable backing store for session state.
//
// Implementations: [MemoryKV] here, repositories.SessionKV on SQLite.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store is a typed facade over a KV owning the session key layout.
type Store struct {
	kv KV
}

// NewStore creates a Store over the given backing KV.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Tokens reads the cached token pair. Missing or malformed values decode to
// their zero value so the pair simply fails validity checks downstream.
func (s *Store) Tokens() (TokenPair, error) {
	var pair TokenPair
	var firstErr error

	read := func(key string) string {
		val, ok, err := s.kv.Get(key)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if !ok {
			return ""
		}
		return val
	}

	pair.AccessToken = read(keyAccessToken)
	pair.AccessExpiresAt = parseEpoch(read(keyAccessExpiresAt))
	pair.RefreshToken = read(keyRefreshToken)
	pair.RefreshExpiresAt = parseEpoch(read(keyRefreshExpiresAt))

	return pair, firstErr
}

// SaveTokens persists the token pair. The access leg is always written; the
// refresh leg is written only when present, so a refresh response carrying no
// new refresh token leaves the previously cached refresh token untouched.
func (s *Store) SaveTokens(pair TokenPair) error {
	if err := s.kv.Set(keyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	if err := s.kv.Set(keyAccessExpiresAt, strconv.FormatInt(pair.AccessExpiresAt, 10)); err != nil {
		return err
	}

	if pair.RefreshToken == "" {
		return nil
	}

	if err := s.kv.Set(keyRefreshToken, pair.RefreshToken); err != nil {
		return err
	}
	return s.kv.Set(keyRefreshExpiresAt, strconv.FormatInt(pair.RefreshExpiresAt, 10))
}

// SaveProfile caches the last-known profile payload. The cache is advisory
// only; callers treat write failures as ignorable.
func (s *Store) SaveProfile(raw json.RawMessage, now time.Time) error {
	if err := s.kv.Set(keyProfile, string(raw)); err != nil {
		return err
	}
	return s.kv.Set(keyProfileCachedAt, now.UTC().Format(time.RFC3339))
}

// Profile returns the cached profile payload, if any.
func (s *Store) Profile() (json.RawMessage, bool, error) {
	val, ok, err := s.kv.Get(keyProfile)
	if err != nil || !ok || val == "" {
		return nil, false, err
	}
	return json.RawMessage(val), true, nil
}

// Clear erases every session key. Deletion continues past individual
// failures; the first error encountered is returned.
func (s *Store) Clear() error {
	var firstErr error
	for _, key := range sessionKeys {
		if err := s.kv.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func parseEpoch(val string) int64 {
	if val == "" {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// MemoryKV is an in-memory KV implementation used in tests and as a fallback
// when no database is configured.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
