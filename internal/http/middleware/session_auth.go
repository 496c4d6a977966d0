package middleware

import (
	"net/http"

	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/internal/observability/metrics"
)

// SessionAuth resolves the session_token cookie (or Bearer header) to a user
// and attaches it to the request context. Requests with no resolvable
// session get 401; accounts that cannot access protected views (pending or
// unknown roles) get 403. m may be nil.
func SessionAuth(service *auth.Service, m *metrics.AuthMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				m.ObserveSessionCheck("missing")
				respond.Detail(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			user, err := service.Identify(r.Context(), token)
			if err != nil {
				m.ObserveSessionCheck("invalid")
				respond.Detail(w, http.StatusUnauthorized, "session invalid or expired")
				return
			}
			if !user.Role.CanAccess() {
				m.ObserveSessionCheck("forbidden")
				respond.Detail(w, http.StatusForbidden, "account is pending admin approval")
				return
			}
			m.ObserveSessionCheck("ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireRole gates a route subtree to one role. It assumes SessionAuth ran
// earlier in the chain.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				respond.Detail(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if user.Role != role {
				respond.Detail(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
