// Package gate implements the client side of the clinic's session and
// authorization flow: a tab-scoped session store, an auth gateway that
// resolves identity on navigation, and a role-gated routing decision.
package gate

import (
	"encoding/json"
	"sync"

	"github.com/mdental/practice-platform/internal/auth"
)

// Session is the client-held record of the signed-in account.
type Session struct {
	UserID  string    `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    auth.Role `json:"role"`
	Picture string    `json:"picture,omitempty"`
}

// Valid reports whether the session can authorize anything at all.
// A missing or unrecognized role never authorizes.
func (s *Session) Valid() bool {
	return s != nil && s.Role.Known()
}

// Store is the single source of truth for who is signed in right now.
type Store interface {
	// Read returns the cached session, or nil when absent or corrupt.
	// Corrupt entries are purged as a side effect.
	Read() *Session
	Write(s *Session)
	Clear()
}

// Storage is a minimal string key-value surface, the shape of tab-scoped
// browser storage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

const sessionKey = "user"

// StorageStore keeps the session JSON-encoded under one key of a Storage.
type StorageStore struct {
	storage Storage
}

func NewStorageStore(storage Storage) *StorageStore {
	return &StorageStore{storage: storage}
}

func (s *StorageStore) Read() *Session {
	raw, ok := s.storage.Get(sessionKey)
	if !ok {
		return nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.UserID == "" {
		// Corrupt entry reads as absent and is purged.
		s.storage.Remove(sessionKey)
		return nil
	}
	return &sess
}

func (s *StorageStore) Write(sess *Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	s.storage.Set(sessionKey, string(data))
}

func (s *StorageStore) Clear() {
	s.storage.Remove(sessionKey)
}

// MemoryStorage is an in-process Storage, one per simulated tab.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MemoryStorage) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}
