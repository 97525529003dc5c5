package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"golang.org/x/oauth2"
)

// State represents the guard's position in the per-run session lifecycle.
//
// NoToken/Validating are initial, Redirecting is terminal: once entered, no
// further session operations succeed on this guard instance.
type State int

const (
	StateNoToken State = iota
	StateValidating
	StateValid
	StateRefreshing
	StateAuthenticated
	StateRedirecting
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	case StateAuthenticated:
		return "authenticated"
	case StateRedirecting:
		return "redirecting_to_login"
	default:
		return ""
	}
}

// AuthAPI is the backend surface the guard depends on.
// Implemented by services.MusicPlayerService.
type AuthAPI interface {
	// Refresh exchanges a refresh token for a new token pair. A non-2xx
	// response surfaces as an error; the returned pair may omit the refresh
	// leg when the server chose not to rotate it.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Profile fetches the authenticated profile with the given bearer token.
	Profile(ctx context.Context, accessToken string) (json.RawMessage, error)

	// Logout invalidates the access token server-side.
	Logout(ctx context.Context, accessToken string) error
}

// RedirectFunc is invoked (at most once per guard) when the session is
// irrecoverable. origin names the operation that triggered re-authentication
// so the caller can return the user there afterward.
type RedirectFunc func(origin string)

// Guard guarantees that a caller either holds a currently valid access token
// before making protected calls, or is deterministically routed to
// re-authenticate, without double-redirecting or looping.
type Guard struct {
	store    *Store
	api      AuthAPI
	logger   *log.Logger
	leeway   time.Duration
	now      func() time.Time
	redirect RedirectFunc

	mu            sync.Mutex
	state         State
	redirectFired bool
}

// GuardOpts contains configuration options for creating a Guard.
type GuardOpts struct {
	Store    *Store
	API      AuthAPI
	Logger   *log.Logger
	Leeway   time.Duration    // defaults to DefaultLeeway
	Now      func() time.Time // defaults to time.Now, injectable for tests
	Redirect RedirectFunc
}

// NewGuard creates a Guard with the provided options.
func NewGuard(opts GuardOpts) *Guard {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Leeway <= 0 {
		opts.Leeway = DefaultLeeway
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Guard{
		store:    opts.Store,
		api:      opts.API,
		logger:   opts.Logger,
		leeway:   opts.Leeway,
		now:      opts.Now,
		redirect: opts.Redirect,
		state:    StateNoToken,
	}
}

// State returns the guard's current lifecycle state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Store returns the session store backing this guard.
func (g *Guard) Store() *Store {
	return g.store
}

// EnsureAccessToken returns a currently valid access token.
//
// The common path is local: a cached token passing the leeway check is
// returned without any network call. An expired access leg with a valid
// refresh leg triggers a silent refresh; every other situation (no refresh
// token, rejected refresh, transport error) erases the cached session, fires
// the login redirect once, and returns an error. There is no retry: a single
// failed refresh is fatal for the session.
func (g *Guard) EnsureAccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = StateValidating

	pair, err := g.store.Tokens()
	if err != nil {
		g.logger.Warn("failed to read cached tokens", "error", err)
	}

	now := g.now()
	if pair.AccessValid(now, g.leeway) {
		g.state = StateValid
		g.redirectFired = false
		return pair.AccessToken, nil
	}

	if !pair.RefreshValid(now) {
		g.clearLocked()
		g.redirectLocked("ensure_access_token")
		return "", shared.ErrNoRefreshToken
	}

	g.state = StateRefreshing

	fresh, err := g.api.Refresh(ctx, pair.RefreshToken)
	if err != nil || fresh == nil || fresh.AccessToken == "" {
		if err != nil {
			err = fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		} else {
			err = shared.ErrRefreshFailed
		}
		g.clearLocked()
		g.redirectLocked("ensure_access_token")
		return "", err
	}

	// A response without a rotated refresh leg keeps the previous one.
	merged := *fresh
	if merged.RefreshToken == "" {
		merged.RefreshToken = pair.RefreshToken
		merged.RefreshExpiresAt = pair.RefreshExpiresAt
	}

	if err := g.store.SaveTokens(merged); err != nil {
		g.logger.Warn("failed to persist refreshed tokens", "error", err)
	}

	g.state = StateAuthenticated
	g.redirectFired = false
	return merged.AccessToken, nil
}

// FetchProfile fetches the authenticated profile with the given bearer token.
//
// A rejected call is authoritative over local expiry math: the cached session
// is erased and the login redirect fires. On success the payload is cached
// best-effort; a cache write failure is logged and swallowed.
func (g *Guard) FetchProfile(ctx context.Context, accessToken string) (json.RawMessage, error) {
	profile, err := g.api.Profile(ctx, accessToken)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.clearLocked()
		g.redirectLocked("fetch_profile")
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := g.store.SaveProfile(profile, g.now()); err != nil {
		g.logger.Warn("failed to cache profile", "error", err)
	}

	g.state = StateAuthenticated
	g.redirectFired = false
	return profile, nil
}

// Logout invalidates the session server-side on a best-effort basis, then
// unconditionally erases all cached session state. A network failure never
// blocks the local logout.
func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pair, err := g.store.Tokens()
	if err != nil {
		g.logger.Warn("failed to read cached tokens", "error", err)
	}

	if pair.AccessToken != "" {
		if err := g.api.Logout(ctx, pair.AccessToken); err != nil {
			g.logger.Warn("logout request failed, clearing session anyway", "error", err)
		}
	}

	if err := g.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	g.state = StateNoToken
	g.redirectLocked("logout")
	return nil
}

// RedirectToLogin fires the login redirect hook. Idempotent: overlapping
// calls from concurrent callers produce exactly one invocation. The latch
// resets only on successful authentication.
func (g *Guard) RedirectToLogin(origin string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redirectLocked(origin)
}

// redirectLocked transitions to the terminal state and invokes the hook once.
// Callers must hold g.mu.
func (g *Guard) redirectLocked(origin string) {
	if g.redirectFired {
		return
	}
	g.redirectFired = true
	g.state = StateRedirecting

	if g.redirect != nil {
		g.redirect(origin)
	}
}

// clearLocked erases the cached session, logging rather than propagating
// failures: the caller is already on a terminal path.
func (g *Guard) clearLocked() {
	if err := g.store.Clear(); err != nil {
		g.logger.Warn("failed to clear session", "error", err)
	}
}

// TokenSource exposes the guard as an [oauth2.TokenSource] so authenticated
// HTTP clients can be built with [oauth2.NewClient].
func (g *Guard) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &guardTokenSource{guard: g, ctx: ctx})
}

type guardTokenSource struct {
	guard *Guard
	ctx   context.Context
}

func (s *guardTokenSource) Token() (*oauth2.Token, error) {
	access, err := s.guard.EnsureAccessToken(s.ctx)
	if err != nil {
		return nil, err
	}

	pair, err := s.guard.store.Tokens()
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      time.Unix(pair.AccessExpiresAt, 0),
	}, nil
}
