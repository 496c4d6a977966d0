package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/internal/observability/metrics"
	"github.com/mdental/practice-platform/pkg/logging"
)

// SessionCookieName is the credential cookie the SPA rides on.
const SessionCookieName = "session_token"

// Handler serves the /api/auth endpoints.
type Handler struct {
	service       *Service
	secureCookies bool
	metrics       *metrics.AuthMetrics
	logger        *logging.Logger
}

// NewHandler builds the auth handler. secureCookies switches the cookie to
// Secure + SameSite=None for cross-site production deployments. m may be nil.
func NewHandler(service *Service, secureCookies bool, m *metrics.AuthMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, secureCookies: secureCookies, metrics: m, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respond.Detail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.metrics.ObserveLogin("rejected")
			respond.Detail(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, ErrAccountPending):
			h.metrics.ObserveLogin("pending")
			respond.Detail(w, http.StatusForbidden, "account is pending admin approval")
		default:
			h.metrics.ObserveLogin("error")
			h.logger.Error("login failed", "error", err)
			respond.Detail(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	h.metrics.ObserveLogin("ok")
	h.setSessionCookie(w, session)
	respond.JSON(w, http.StatusOK, user)
}

// GET /api/auth/session?session_id=<provider token>
func (h *Handler) ExchangeSession(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session_id")
	if token == "" {
		respond.Detail(w, http.StatusBadRequest, "session_id is required")
		return
	}

	user, session, err := h.service.Exchange(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidIdentityToken):
			h.metrics.ObserveExchange("rejected")
			respond.Detail(w, http.StatusUnauthorized, "identity token rejected")
		case errors.Is(err, ErrAccountPending):
			h.metrics.ObserveExchange("pending")
			respond.Detail(w, http.StatusForbidden, "account is pending admin approval")
		default:
			h.metrics.ObserveExchange("error")
			h.logger.Error("session exchange failed", "error", err)
			respond.Detail(w, http.StatusInternalServerError, "session exchange failed")
		}
		return
	}

	h.metrics.ObserveExchange("ok")
	h.setSessionCookie(w, session)
	respond.JSON(w, http.StatusOK, user)
}

// GET /api/auth/me (behind SessionAuth middleware)
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respond.Detail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// POST /api/auth/logout always succeeds; the cookie is cleared even when no
// session exists server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), TokenFromRequest(r))
	h.clearSessionCookie(w)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// TokenFromRequest extracts the session credential from the cookie or, as a
// fallback, a Bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, s *Session) {
	sameSite := http.SameSiteLaxMode
	if h.secureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: sameSite,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
