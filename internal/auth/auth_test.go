package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type memStore struct {
	token   string
	cleared int
}

func (m *memStore) AuthToken() string           { return m.token }
func (m *memStore) SetAuthToken(t string) error { m.token = t; return nil }
func (m *memStore) ClearAuthToken() error       { m.token = ""; m.cleared++; return nil }

type recordingNav struct {
	redirects []string
	replaces  []string
}

func (n *recordingNav) Redirect(target string) error { n.redirects = append(n.redirects, target); return nil }
func (n *recordingNav) Replace(target string) error  { n.replaces = append(n.replaces, target); return nil }

type stubChecker struct {
	calls int
	token string
	err   error
}

func (c *stubChecker) Check(_ context.Context, sub string) error {
	c.calls++
	c.token = sub
	return c.err
}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func enabledConfig() Config {
	return Config{Enabled: true, AuthURL: "https://auth.example.com", AppName: "routerbench", AppURL: "http://localhost:5173"}
}

func TestGuardDisabled(t *testing.T) {
	nav := &recordingNav{}
	g := NewGuard(Config{}, &memStore{}, nil, nav)
	state, err := g.Check(context.Background(), "")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !state.Authorized || !state.Ready {
		t.Fatalf("expected immediate access, got %+v", state)
	}
	if len(nav.redirects) != 0 {
		t.Fatal("expected no redirect when auth is disabled")
	}
}

func TestGuardNoTokenRedirectsOnce(t *testing.T) {
	nav := &recordingNav{}
	checker := &stubChecker{}
	g := NewGuard(enabledConfig(), &memStore{}, checker, nav)

	state, err := g.Check(context.Background(), "http://localhost:5173/dataset")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if state.Authorized || state.Ready {
		t.Fatalf("expected no authorized transition, got %+v", state)
	}
	if len(nav.redirects) != 1 {
		t.Fatalf("expected exactly one redirect, got %d", len(nav.redirects))
	}
	if checker.calls != 0 {
		t.Fatalf("expected no liveness check, got %d", checker.calls)
	}

	u, err := url.Parse(nav.redirects[0])
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(u.Query().Get("v"))
	if err != nil {
		t.Fatalf("decode v: %v", err)
	}
	var info redirectInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatal(err)
	}
	if info.App != "routerbench" || info.URL != "http://localhost:5173" {
		t.Fatalf("unexpected redirect payload %+v", info)
	}
}

func TestGuardQueryTokenStoredAndStripped(t *testing.T) {
	nav := &recordingNav{}
	store := &memStore{}
	raw := EncodeToken(Token{ID: "user-1", Token: "sub", Expiry: fixedNow.UnixMilli() + 60_000})
	g := NewGuard(enabledConfig(), store, &stubChecker{}, nav).WithClock(func() time.Time { return fixedNow })

	current := "http://localhost:5173/page?tab=2&t=" + url.QueryEscape(raw)
	state, err := g.Check(context.Background(), current)
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !state.Authorized || state.UserID != "user-1" {
		t.Fatalf("unexpected state %+v", state)
	}
	if store.token != raw {
		t.Fatal("expected token persisted")
	}
	if len(nav.replaces) != 1 || strings.Contains(nav.replaces[0], "t=") || !strings.Contains(nav.replaces[0], "tab=2") {
		t.Fatalf("expected t stripped and other params kept, got %v", nav.replaces)
	}
}

func TestGuardStoredTokenNoReplace(t *testing.T) {
	nav := &recordingNav{}
	store := &memStore{token: EncodeToken(Token{ID: "u", Token: "s", Expiry: fixedNow.UnixMilli() + 1})}
	g := NewGuard(enabledConfig(), store, &stubChecker{}, nav).WithClock(func() time.Time { return fixedNow })

	state, err := g.Check(context.Background(), "")
	if err != nil || !state.Authorized {
		t.Fatalf("expected authorized, got %+v err=%v", state, err)
	}
	if len(nav.replaces) != 0 {
		t.Fatal("stored token must not trigger a replace")
	}
}

func TestGuardExpiredTokenChecked(t *testing.T) {
	nav := &recordingNav{}
	store := &memStore{token: EncodeToken(Token{ID: "u", Token: "sub-token", Expiry: fixedNow.UnixMilli() - 1})}
	checker := &stubChecker{}
	g := NewGuard(enabledConfig(), store, checker, nav).WithClock(func() time.Time { return fixedNow })

	state, err := g.Check(context.Background(), "")
	if err != nil || !state.Authorized {
		t.Fatalf("expected accepted token, got %+v err=%v", state, err)
	}
	if checker.calls != 1 || checker.token != "sub-token" {
		t.Fatalf("expected one check with the embedded token, got %d %q", checker.calls, checker.token)
	}
}

func TestGuardExpiredTokenRejected(t *testing.T) {
	nav := &recordingNav{}
	store := &memStore{token: EncodeToken(Token{ID: "u", Token: "sub", Expiry: 0})}
	checker := &stubChecker{err: ErrTokenRejected}
	g := NewGuard(enabledConfig(), store, checker, nav).WithClock(func() time.Time { return fixedNow })

	state, err := g.Check(context.Background(), "")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if state.Authorized {
		t.Fatal("expected unauthorized state")
	}
	if store.token != "" || store.cleared != 1 {
		t.Fatal("expected stored token cleared")
	}
	if len(nav.redirects) != 1 {
		t.Fatalf("expected one redirect, got %d", len(nav.redirects))
	}
}

func TestGuardUnreachableCheckerKeepsToken(t *testing.T) {
	nav := &recordingNav{}
	raw := EncodeToken(Token{ID: "u", Token: "sub", Expiry: 0})
	store := &memStore{token: raw}
	g := NewGuard(enabledConfig(), store, NewHTTPChecker("http://127.0.0.1:1"), nav).WithClock(func() time.Time { return fixedNow })

	state, err := g.Check(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error when the auth service is unreachable")
	}
	if errors.Is(err, ErrTokenRejected) {
		t.Fatalf("transport failure reported as rejection: %v", err)
	}
	if state.Authorized {
		t.Fatal("expected unauthorized state")
	}
	if store.token != raw || store.cleared != 0 {
		t.Fatalf("expected stored token kept, cleared=%d", store.cleared)
	}
	if len(nav.redirects) != 0 {
		t.Fatalf("expected no redirect, got %v", nav.redirects)
	}
}

func TestGuardCheckerErrorKeepsToken(t *testing.T) {
	nav := &recordingNav{}
	store := &memStore{token: EncodeToken(Token{ID: "u", Token: "sub", Expiry: 0})}
	checker := &stubChecker{err: errors.New("connection reset")}
	g := NewGuard(enabledConfig(), store, checker, nav).WithClock(func() time.Time { return fixedNow })

	if _, err := g.Check(context.Background(), ""); err == nil {
		t.Fatal("expected checker error to be returned")
	}
	if store.token == "" || store.cleared != 0 || len(nav.redirects) != 0 {
		t.Fatalf("expected session untouched, cleared=%d redirects=%d", store.cleared, len(nav.redirects))
	}
}

func TestGuardMalformedTokenRedirects(t *testing.T) {
	nav := &recordingNav{}
	store := &memStore{token: "%%%not-base64"}
	g := NewGuard(enabledConfig(), store, &stubChecker{}, nav)

	state, err := g.Check(context.Background(), "")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if state.Authorized || len(nav.redirects) != 1 || store.token != "" {
		t.Fatalf("expected malformed token treated as missing, state=%+v redirects=%d", state, len(nav.redirects))
	}
}

func TestGuardMissingAuthURL(t *testing.T) {
	g := NewGuard(Config{Enabled: true}, &memStore{}, nil, &recordingNav{})
	if _, err := g.Check(context.Background(), ""); !errors.Is(err, ErrAuthURLMissing) {
		t.Fatalf("expected ErrAuthURLMissing, got %v", err)
	}
}

func TestDecodeToken(t *testing.T) {
	tok := Token{ID: "42", Token: "abc", Expiry: 99}
	enc := EncodeToken(tok)
	got, err := DecodeToken(strings.TrimRight(enc, "="))
	if err != nil {
		t.Fatalf("DecodeToken unpadded: %v", err)
	}
	if got != tok {
		t.Fatalf("got %+v want %+v", got, tok)
	}
	if _, err := DecodeToken(base64.StdEncoding.EncodeToString([]byte("not json"))); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
	if !tok.Expired(time.UnixMilli(100)) || tok.Expired(time.UnixMilli(99)) {
		t.Fatal("expiry must be strictly after")
	}
}

func TestHTTPChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/check/" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-token") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL + "/")
	if err := c.Check(context.Background(), "good"); err != nil {
		t.Fatalf("expected accepted token, got %v", err)
	}
	if err := c.Check(context.Background(), "bad"); !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}
