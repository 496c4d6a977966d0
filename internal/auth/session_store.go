package auth

import (
	"context"
	"sync"
	"time"
)

// SessionStore persists session records keyed by their opaque token.
// Implementations treat corrupt stored data as absent and purge it.
type SessionStore interface {
	Get(ctx context.Context, token string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
	// DeleteUser removes every session belonging to userID. Logins call this
	// first so each user holds at most one live session.
	DeleteUser(ctx context.Context, userID string) error
}

// MemorySessionStore is the fallback store used when Redis is not configured
// and in tests. Expiry is enforced lazily on Get.
type MemorySessionStore struct {
	mu       sync.Mutex
	byToken  map[string]Session
	byUserID map[string]string
}

// NewMemorySessionStore returns an empty in-process store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		byToken:  make(map[string]Session),
		byUserID: make(map[string]string),
	}
}

func (m *MemorySessionStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byToken[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Expired(time.Now().UTC()) {
		m.deleteLocked(token)
		return nil, ErrSessionNotFound
	}
	out := s
	return &out, nil
}

func (m *MemorySessionStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[s.Token] = *s
	m.byUserID[s.UserID] = s.Token
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(token)
	return nil
}

func (m *MemorySessionStore) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.byUserID[userID]; ok {
		m.deleteLocked(token)
	}
	return nil
}

func (m *MemorySessionStore) deleteLocked(token string) {
	if s, ok := m.byToken[token]; ok {
		delete(m.byUserID, s.UserID)
	}
	delete(m.byToken, token)
}
