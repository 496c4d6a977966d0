package gate

import (
	"context"
	"net/url"
	"sync"

	"github.com/mdental/practice-platform/pkg/logging"
)

// identityAPI is the slice of the backend the gateway needs.
type identityAPI interface {
	Exchange(ctx context.Context, token string) (*Session, error)
	Me(ctx context.Context) (*Session, error)
}

// Navigation identifies one top-level navigation: the requested path and
// the URL fragment that arrived with it. ID distinguishes navigations so the
// fragment exchange runs at most once per navigation even when the caller
// re-enters Resolve.
type Navigation struct {
	ID       string
	Path     string
	Fragment string
}

// Resolution is the gateway's definitive answer for one navigation.
type Resolution struct {
	Session *Session
	// Redirect is set when the resolution itself demands a navigation,
	// e.g. after a fragment exchange lands on the role's home.
	Redirect string
}

// Authenticated reports whether a usable session was produced.
func (r Resolution) Authenticated() bool {
	return r.Session.Valid()
}

// Gateway resolves identity on page load: cached session first, then a
// provider token in the URL fragment, then the backend identity check.
type Gateway struct {
	store  Store
	api    identityAPI
	logger *logging.Logger

	mu      sync.Mutex
	latched map[string]bool
}

func NewGateway(store Store, api identityAPI, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{store: store, api: api, logger: logger, latched: map[string]bool{}}
}

// FragmentToken extracts the provider token from a URL fragment like
// "session_id=abc123". Absent or malformed fragments return "".
func FragmentToken(fragment string) string {
	if fragment == "" {
		return ""
	}
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return ""
	}
	return values.Get("session_id")
}

// Resolve produces a definitive session, or a definitive "not
// authenticated", for one navigation. Strategies run in strict order and a
// single failure is terminal for the navigation: there are no retries.
func (g *Gateway) Resolve(ctx context.Context, nav Navigation) Resolution {
	// Strategy 1: trust the cached session, no network.
	if cached := g.store.Read(); cached != nil {
		return Resolution{Session: cached}
	}

	// Strategy 2: provider token in the fragment, exchanged at most once
	// per navigation.
	if token := FragmentToken(nav.Fragment); token != "" && g.latch(nav.ID) {
		session, err := g.api.Exchange(ctx, token)
		if err != nil {
			g.logger.Warn("token exchange failed", "error", err)
			g.store.Clear()
			return Resolution{}
		}
		g.store.Write(session)
		return Resolution{Session: session, Redirect: session.Role.Home()}
	}

	// Strategy 3: ask the backend who the ambient credential belongs to.
	session, err := g.api.Me(ctx)
	if err != nil {
		g.store.Clear()
		return Resolution{}
	}
	g.store.Write(session)
	return Resolution{Session: session}
}

// latch marks the navigation's fragment as processed, returning false when
// it already was.
func (g *Gateway) latch(navID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latched[navID] {
		return false
	}
	g.latched[navID] = true
	return true
}

// Logout clears the local session after a best-effort backend call.
type logoutAPI interface {
	Logout(ctx context.Context) error
}

// Logout clears the cached session and reports the login path as the next
// destination. The backend call may fail; local state is cleared regardless.
func (g *Gateway) Logout(ctx context.Context, api logoutAPI) string {
	if api != nil {
		if err := api.Logout(ctx); err != nil {
			g.logger.Warn("backend logout failed", "error", err)
		}
	}
	g.store.Clear()
	return LoginPath
}
