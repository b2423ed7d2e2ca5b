package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Checker asks the auth service whether an expired token is still live.
type Checker interface {
	Check(ctx context.Context, subToken string) error
}

// HTTPChecker calls GET {AuthURL}/check/ with the x-token header.
type HTTPChecker struct {
	AuthURL string
	Client  *http.Client
}

// NewHTTPChecker returns a checker with a 10 second timeout.
func NewHTTPChecker(authURL string) *HTTPChecker {
	return &HTTPChecker{
		AuthURL: strings.TrimRight(authURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Check returns nil for a 2xx answer and ErrTokenRejected otherwise.
func (c *HTTPChecker) Check(ctx context.Context, subToken string) error {
	if c.AuthURL == "" {
		return ErrAuthURLMissing
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AuthURL+"/check/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-token", subToken)
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("auth check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrTokenRejected, resp.Status)
	}
	return nil
}
