package gate

import (
	"context"
	"strings"

	"github.com/mdental/practice-platform/internal/auth"
)

// Route prefixes.
const (
	LoginPath   = "/login"
	AdminPrefix = "/admin"
	StaffPrefix = "/staff"
)

// State is the router's position in the gate lifecycle for one navigation.
type State int

const (
	StateResolving State = iota
	StateAuthorized
	StateUnauthorizedRole
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAuthorized:
		return "authorized"
	case StateUnauthorizedRole:
		return "unauthorized_role"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Decision is the outcome of the pure route authorization rule.
type Decision struct {
	Allow    bool
	Redirect string
}

// Decide is the route authorization rule: admin paths require the admin
// role, staff paths the staff role, the login path requires no valid
// session, and unknown paths fall back to login. A session whose role is
// pending or unrecognized never authorizes; its redirect is that role's
// home, which for such sessions is the login page.
func Decide(path string, s *Session) Decision {
	switch {
	case path == LoginPath:
		if s.Valid() && s.Role.CanAccess() {
			return Decision{Redirect: s.Role.Home()}
		}
		return Decision{Allow: true}
	case strings.HasPrefix(path, AdminPrefix):
		return requireRole(s, auth.RoleAdmin)
	case strings.HasPrefix(path, StaffPrefix):
		return requireRole(s, auth.RoleStaff)
	default:
		return Decision{Redirect: LoginPath}
	}
}

func requireRole(s *Session, want auth.Role) Decision {
	if !s.Valid() || !s.Role.CanAccess() {
		return Decision{Redirect: LoginPath}
	}
	if s.Role != want {
		// Valid but wrong role: go home, never to login.
		return Decision{Redirect: s.Role.Home()}
	}
	return Decision{Allow: true}
}

// Outcome is the router's terminal answer for one navigation.
type Outcome struct {
	State    State
	Session  *Session
	Redirect string
}

// Router drives the resolving state machine: it invokes the gateway and
// applies the route rule. While the gateway is in flight the caller renders
// nothing of the target view.
type Router struct {
	gateway *Gateway
}

func NewRouter(gateway *Gateway) *Router {
	return &Router{gateway: gateway}
}

// Navigate resolves one navigation to authorized, unauthorized-role or
// unauthenticated.
func (r *Router) Navigate(ctx context.Context, nav Navigation) Outcome {
	res := r.gateway.Resolve(ctx, nav)

	if !res.Authenticated() {
		// Unknown roles land here too: they hold no usable session.
		if nav.Path == LoginPath {
			return Outcome{State: StateAuthorized}
		}
		return Outcome{State: StateUnauthenticated, Redirect: LoginPath}
	}

	path := nav.Path
	if res.Redirect != "" {
		// A fragment exchange already picked the destination.
		path = res.Redirect
	}

	d := Decide(path, res.Session)
	if d.Allow {
		return Outcome{State: StateAuthorized, Session: res.Session, Redirect: res.Redirect}
	}
	if d.Redirect == LoginPath {
		return Outcome{State: StateUnauthenticated, Redirect: LoginPath}
	}
	return Outcome{State: StateUnauthorizedRole, Session: res.Session, Redirect: d.Redirect}
}
