package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwiater/routerbench/internal/logging"
)

// Config mirrors the AUTH, AUTH_URL, APP_NAME and FRONTEND_URL settings.
type Config struct {
	Enabled bool
	AuthURL string
	AppName string
	AppURL  string
}

// TokenStore persists the raw session token.
type TokenStore interface {
	AuthToken() string
	SetAuthToken(token string) error
	ClearAuthToken() error
}

// Navigator performs the two navigation side effects of the guard.
type Navigator interface {
	// Redirect sends the user to the sign-in URL.
	Redirect(target string) error
	// Replace swaps the current location without adding a history entry.
	Replace(target string) error
}

// State is what the guard exposes to callers.
type State struct {
	Authorized bool   `json:"authorized"`
	Ready      bool   `json:"ready"`
	UserID     string `json:"userId,omitempty"`
}

// Guard decides whether the current session may proceed.
type Guard struct {
	cfg     Config
	store   TokenStore
	checker Checker
	nav     Navigator
	now     func() time.Time
	logger  *slog.Logger
}

// NewGuard wires a guard. checker may be nil when cfg.Enabled is false.
func NewGuard(cfg Config, store TokenStore, checker Checker, nav Navigator) *Guard {
	return &Guard{
		cfg:     cfg,
		store:   store,
		checker: checker,
		nav:     nav,
		now:     time.Now,
		logger:  logging.Logger(),
	}
}

// WithClock overrides the time source.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Check runs the guard for currentURL, which may carry the token in its t
// query parameter. A returned error means a navigation side effect failed;
// an unauthorized State with a nil error means the user was redirected.
func (g *Guard) Check(ctx context.Context, currentURL string) (State, error) {
	if !g.cfg.Enabled {
		return State{Authorized: true, Ready: true}, nil
	}

	queryToken, stripped, err := splitTokenParam(currentURL)
	if err != nil {
		g.logger.Warn("unparseable current URL", "url", currentURL, "error", err)
	}
	raw := queryToken
	if raw == "" {
		raw = g.store.AuthToken()
	}
	if raw == "" {
		return State{}, g.redirect(currentURL)
	}

	tok, err := DecodeToken(raw)
	if err != nil {
		g.logger.Warn("discarding malformed auth token", "error", err)
		_ = g.store.ClearAuthToken()
		return State{}, g.redirect(currentURL)
	}

	if tok.Expired(g.now()) {
		if g.checker == nil {
			return State{}, errors.New("auth checker not configured")
		}
		if err := g.checker.Check(ctx, tok.Token); err != nil {
			if !errors.Is(err, ErrTokenRejected) {
				// The service could not answer; the session is kept for the next attempt.
				g.logger.Warn("auth check failed", "user", tok.ID, "error", err)
				return State{}, fmt.Errorf("verify session: %w", err)
			}
			g.logger.Info("auth token no longer valid", "user", tok.ID, "error", err)
			_ = g.store.ClearAuthToken()
			return State{}, g.redirect(currentURL)
		}
	}

	if err := g.store.SetAuthToken(raw); err != nil {
		return State{}, err
	}
	if queryToken != "" {
		if err := g.nav.Replace(stripped); err != nil {
			return State{}, err
		}
	}
	if ctx.Err() != nil {
		return State{}, ctx.Err()
	}
	return State{Authorized: true, Ready: true, UserID: tok.ID}, nil
}

func (g *Guard) redirect(currentURL string) error {
	appURL := g.cfg.AppURL
	if appURL == "" {
		appURL = origin(currentURL)
	}
	target, err := RedirectURL(g.cfg.AuthURL, g.cfg.AppName, appURL)
	if err != nil {
		return err
	}
	return g.nav.Redirect(target)
}
