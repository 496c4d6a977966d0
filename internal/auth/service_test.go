package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestService(t *testing.T, cfg ServiceConfig) (*Service, *InMemoryUserRepository, *MemorySessionStore) {
	t.Helper()
	users := NewInMemoryUserRepository()
	sessions := NewMemorySessionStore()
	svc := NewService(users, sessions, NewIdentityVerifier("test-secret"), nil, cfg, nil)
	return svc, users, sessions
}

func signIdentityToken(t *testing.T, secret, email, name string) string {
	t.Helper()
	claims := IdentityClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func seedUser(t *testing.T, users UserRepository, email, password string, role Role) *User {
	t.Helper()
	u := &User{ID: NewUserID(), Email: email, Name: "Seeded", Role: role}
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = hash
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestLogin_Success(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "doc@clinic.mk", "s3cret", RoleAdmin)

	user, session, err := svc.Login(context.Background(), "doc@clinic.mk", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != "doc@clinic.mk" {
		t.Errorf("Email = %q", user.Email)
	}
	if session.Token == "" || session.UserID != user.ID {
		t.Errorf("bad session: %+v", session)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "doc@clinic.mk", "s3cret", RoleAdmin)

	if _, _, err := svc.Login(context.Background(), "doc@clinic.mk", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t, ServiceConfig{})
	if _, _, err := svc.Login(context.Background(), "ghost@clinic.mk", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_NoPasswordHash(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "oauth@clinic.mk", "", RoleStaff)

	if _, _, err := svc.Login(context.Background(), "oauth@clinic.mk", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_PendingRefused(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "new@clinic.mk", "pw123456", RolePending)

	if _, _, err := svc.Login(context.Background(), "new@clinic.mk", "pw123456"); !errors.Is(err, ErrAccountPending) {
		t.Errorf("err = %v, want ErrAccountPending", err)
	}
}

func TestExchange_FirstUserBecomesAdmin(t *testing.T) {
	svc, _, _ := newTestService(t, ServiceConfig{})
	token := signIdentityToken(t, "test-secret", "owner@clinic.mk", "Owner")

	user, session, err := svc.Exchange(context.Background(), token)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
	if session == nil || session.UserID != user.ID {
		t.Errorf("bad session: %+v", session)
	}
}

func TestExchange_AllowlistedEmailBecomesAdmin(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{AdminEmails: []string{"boss@clinic.mk"}})
	seedUser(t, users, "existing@clinic.mk", "", RoleStaff)

	token := signIdentityToken(t, "test-secret", "boss@clinic.mk", "Boss")
	user, _, err := svc.Exchange(context.Background(), token)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
}

func TestExchange_SecondUserIsPendingAndRefused(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "first@clinic.mk", "", RoleAdmin)

	token := signIdentityToken(t, "test-secret", "second@clinic.mk", "Second")
	_, _, err := svc.Exchange(context.Background(), token)
	if !errors.Is(err, ErrAccountPending) {
		t.Fatalf("err = %v, want ErrAccountPending", err)
	}

	// The account still got provisioned for later promotion.
	created, err := users.GetByEmail(context.Background(), "second@clinic.mk")
	if err != nil {
		t.Fatalf("provisioned user missing: %v", err)
	}
	if created.Role != RolePending {
		t.Errorf("Role = %q, want pending", created.Role)
	}
}

func TestExchange_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t, ServiceConfig{})
	if _, _, err := svc.Exchange(context.Background(), "garbage"); !errors.Is(err, ErrInvalidIdentityToken) {
		t.Errorf("err = %v, want ErrInvalidIdentityToken", err)
	}
}

func TestExchange_UpdatesExistingProfile(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seeded := seedUser(t, users, "doc@clinic.mk", "", RoleStaff)

	token := signIdentityToken(t, "test-secret", "doc@clinic.mk", "Dr. New Name")
	user, _, err := svc.Exchange(context.Background(), token)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("provisioned a duplicate account")
	}
	if user.Name != "Dr. New Name" {
		t.Errorf("Name = %q, profile not refreshed", user.Name)
	}
}

func TestIdentify_RoundTrip(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "doc@clinic.mk", "s3cret", RoleStaff)

	_, session, err := svc.Login(context.Background(), "doc@clinic.mk", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	user, err := svc.Identify(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if user.Email != "doc@clinic.mk" {
		t.Errorf("Email = %q", user.Email)
	}
}

func TestIdentify_DeletedUserPurgesSession(t *testing.T) {
	svc, users, sessions := newTestService(t, ServiceConfig{})
	u := seedUser(t, users, "doc@clinic.mk", "s3cret", RoleStaff)

	_, session, err := svc.Login(context.Background(), "doc@clinic.mk", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := users.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := svc.Identify(context.Background(), session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if _, err := sessions.Get(context.Background(), session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session was not purged")
	}
}

func TestLogin_EvictsPriorSession(t *testing.T) {
	svc, users, sessions := newTestService(t, ServiceConfig{})
	seedUser(t, users, "doc@clinic.mk", "s3cret", RoleAdmin)

	_, first, err := svc.Login(context.Background(), "doc@clinic.mk", "s3cret")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, second, err := svc.Login(context.Background(), "doc@clinic.mk", "s3cret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := sessions.Get(context.Background(), first.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("first session still live after second login")
	}
	if _, err := sessions.Get(context.Background(), second.Token); err != nil {
		t.Errorf("second session missing: %v", err)
	}
}

func TestLogout_NeverFails(t *testing.T) {
	svc, _, _ := newTestService(t, ServiceConfig{})
	svc.Logout(context.Background(), "session_doesnotexist")
	svc.Logout(context.Background(), "")
}

func TestExchange_NotifiesOnPendingRegistration(t *testing.T) {
	svc, users, _ := newTestService(t, ServiceConfig{})
	seedUser(t, users, "first@clinic.mk", "", RoleAdmin)

	var notified []string
	svc.SetNotifier(notifierFunc(func(_ context.Context, email, _ string) {
		notified = append(notified, email)
	}))

	token := signIdentityToken(t, "test-secret", "second@clinic.mk", "Second")
	if _, _, err := svc.Exchange(context.Background(), token); !errors.Is(err, ErrAccountPending) {
		t.Fatalf("err = %v, want ErrAccountPending", err)
	}
	if len(notified) != 1 || notified[0] != "second@clinic.mk" {
		t.Errorf("notified = %v", notified)
	}
}

type notifierFunc func(ctx context.Context, email, name string)

func (f notifierFunc) AccountPending(ctx context.Context, email, name string) {
	f(ctx, email, name)
}
