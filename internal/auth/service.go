package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/pkg/logging"
)

// ServiceConfig carries the tunables for the auth service.
type ServiceConfig struct {
	// SessionTTL is how long a minted session lives. Zero means 7 days.
	SessionTTL time.Duration
	// AdminEmails are provisioned straight to the admin role.
	AdminEmails []string
}

// RegistrationNotifier is told about accounts waiting for approval.
type RegistrationNotifier interface {
	AccountPending(ctx context.Context, email, name string)
}

// Service implements login, provider token exchange, identity checks and
// logout over the user repository and session store.
type Service struct {
	users       UserRepository
	sessions    SessionStore
	verifier    *IdentityVerifier
	recorder    activity.Recorder
	notifier    RegistrationNotifier
	logger      *logging.Logger
	ttl         time.Duration
	adminEmails map[string]struct{}
}

// SetNotifier installs the optional registration notifier.
func (s *Service) SetNotifier(n RegistrationNotifier) {
	s.notifier = n
}

// NewService wires an auth service.
func NewService(users UserRepository, sessions SessionStore, verifier *IdentityVerifier, recorder activity.Recorder, cfg ServiceConfig, logger *logging.Logger) *Service {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[e] = struct{}{}
	}
	return &Service{
		users:       users,
		sessions:    sessions,
		verifier:    verifier,
		recorder:    recorder,
		logger:      logger,
		ttl:         ttl,
		adminEmails: admins,
	}
}

// SessionTTL exposes the configured session lifetime for cookie max-age.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// Login authenticates an email/password pair. Accounts without a password
// hash (provider-only accounts) and pending accounts cannot log in.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Role.CanAccess() {
		return nil, nil, ErrAccountPending
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.recorder.Record(ctx, user.ID, user.Name, activity.ActionLoggedIn, "user", user.ID, "")
	return user, session, nil
}

// Exchange validates a provider-issued identity token, provisions the user on
// first sight and mints a session. Pending accounts are created but refused.
func (s *Service) Exchange(ctx context.Context, token string) (*User, *Session, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.provision(ctx, claims.Email, claims.Name, claims.Picture)
	if err != nil {
		return nil, nil, err
	}
	if !user.Role.CanAccess() {
		return nil, nil, ErrAccountPending
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.recorder.Record(ctx, user.ID, user.Name, activity.ActionLoggedIn, "user", user.ID, "provider exchange")
	return user, session, nil
}

// Identify resolves a session token to its user. An expired, corrupt or
// unknown token and a vanished user all report ErrSessionNotFound.
func (s *Service) Identify(ctx context.Context, token string) (*User, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		// Session for a deleted user: purge it.
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Logout deletes the session. It never fails: the client clears its cookie
// regardless.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if user, err := s.Identify(ctx, token); err == nil {
		s.recorder.Record(ctx, user.ID, user.Name, activity.ActionLoggedOut, "user", user.ID, "")
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Warn("logout: session delete failed", "error", err)
	}
}

// RevokeUserSessions drops every live session for userID. Used when an admin
// deletes or demotes an account.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) {
	if err := s.sessions.DeleteUser(ctx, userID); err != nil {
		s.logger.Warn("revoke sessions failed", "error", err, "user_id", userID)
	}
}

func (s *Service) startSession(ctx context.Context, user *User) (*Session, error) {
	// One live session per user.
	if err := s.sessions.DeleteUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("auth: evict sessions: %w", err)
	}
	session := NewSession(user.ID, s.ttl)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// provision returns the account for email, creating it when absent. The first
// account ever created and allowlisted emails become admin; everyone else
// starts pending until an admin promotes them.
func (s *Service) provision(ctx context.Context, email, name, picture string) (*User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if err := s.users.UpdateProfile(ctx, existing.ID, name, picture); err != nil {
			return nil, err
		}
		existing.Name = name
		existing.Picture = picture
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := RolePending
	detail := "registered, awaiting approval"
	if count == 0 {
		role = RoleAdmin
		detail = "first account registered as admin"
	} else if _, ok := s.adminEmails[email]; ok {
		role = RoleAdmin
		detail = "allowlisted email registered as admin"
	}

	user := &User{
		ID:      NewUserID(),
		Email:   email,
		Name:    name,
		Picture: picture,
		Role:    role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, user.ID, user.Name, activity.ActionRegistered, "user", user.ID, detail)
	if role == RolePending && s.notifier != nil {
		s.notifier.AccountPending(ctx, user.Email, user.Name)
	}
	return user, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
