// Package auth gates command access on a session token issued by an
// external auth service.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrAuthURLMissing is returned when a redirect is needed but no auth URL is configured.
	ErrAuthURLMissing = errors.New("AUTH_URL is not configured")
	// ErrNotAuthorized is returned to callers that required an authorized session.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrTokenRejected is returned by a Checker when the auth service refuses a token.
	ErrTokenRejected = errors.New("token rejected by auth service")
	// ErrMalformedToken wraps token decode failures.
	ErrMalformedToken = errors.New("malformed auth token")
)

// Token is the decoded session token. Expiry is in Unix milliseconds.
type Token struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

// Expired reports whether now is past the token's expiry.
func (t Token) Expired(now time.Time) bool {
	return now.UnixMilli() > t.Expiry
}

// DecodeToken parses a base64-encoded JSON token. Unpadded input is accepted.
func DecodeToken(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, fmt.Errorf("%w: empty", ErrMalformedToken)
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
	}
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return tok, nil
}

// EncodeToken is the inverse of DecodeToken.
func EncodeToken(t Token) string {
	data, _ := json.Marshal(t)
	return base64.StdEncoding.EncodeToString(data)
}

type redirectInfo struct {
	App string `json:"app"`
	URL string `json:"url"`
}

// RedirectURL builds the sign-in URL: authURL?v=base64(JSON{app,url}).
func RedirectURL(authURL, appName, returnURL string) (string, error) {
	authURL = strings.TrimSpace(authURL)
	if authURL == "" {
		return "", ErrAuthURLMissing
	}
	data, err := json.Marshal(redirectInfo{App: appName, URL: returnURL})
	if err != nil {
		return "", err
	}
	return authURL + "?v=" + url.QueryEscape(base64.StdEncoding.EncodeToString(data)), nil
}

// splitTokenParam returns the t query parameter of raw and raw without it.
func splitTokenParam(raw string) (token, stripped string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw, err
	}
	q := u.Query()
	token = q.Get("t")
	if token == "" {
		return "", raw, nil
	}
	q.Del("t")
	u.RawQuery = q.Encode()
	return token, u.String(), nil
}

// origin returns scheme://host of raw, or "" when raw has no host.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
