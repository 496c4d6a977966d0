package auth

import (
	"time"

	"github.com/mdental/practice-platform/internal/ids"
)

// User is a clinic account. PasswordHash is only set for accounts that can
// log in with email/password; OAuth-provisioned accounts leave it empty.
type User struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserID mints an id in the user_xxxxxxxxxxxx form.
func NewUserID() string {
	return ids.New("user")
}

// Session is the server-side record behind a session_token credential.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// NewSession mints a session for userID valid for ttl.
func NewSession(userID string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		Token:     ids.Token("session"),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
