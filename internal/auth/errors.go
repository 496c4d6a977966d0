package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when an email/password pair does not
	// match a password-capable account.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidIdentityToken is returned when a provider token fails
	// validation during the session exchange.
	ErrInvalidIdentityToken = errors.New("auth: invalid identity token")
	// ErrAccountPending is returned when an account exists but has not been
	// approved by an admin yet.
	ErrAccountPending = errors.New("auth: account pending approval")
	// ErrSessionNotFound is returned for absent, corrupt or expired sessions.
	ErrSessionNotFound = errors.New("auth: session not found")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("auth: user not found")
)
