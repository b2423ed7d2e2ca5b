// internal/cli/auth.go
package routerbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/auth"
	"github.com/mwiater/routerbench/internal/logging"
)

// terminalNavigator prints the sign-in link instead of opening a browser.
type terminalNavigator struct {
	out      io.Writer
	redirect string
}

func (n *terminalNavigator) Redirect(target string) error {
	n.redirect = target
	fmt.Fprintf(n.out, "Sign in at:\n  %s\nthen run: routerbench login --url '<the URL you were sent back to>'\n", target)
	return nil
}

func (n *terminalNavigator) Replace(target string) error {
	logging.LogEvent("[AUTH] token accepted, continuing at %s", target)
	return nil
}

// newGuard builds the auth guard for the current runtime. force enables the
// guard even when auth is off in the config (used by login).
func newGuard(rt *runtime, nav auth.Navigator, force bool) *auth.Guard {
	cfg := auth.Config{
		Enabled: rt.cfg.Auth || force,
		AuthURL: rt.cfg.AuthURL,
		AppName: rt.cfg.AppNameOrDefault(),
		AppURL:  rt.cfg.AppURL,
	}
	return auth.NewGuard(cfg, rt.session, auth.NewHTTPChecker(rt.cfg.AuthURL), nav)
}

// appURL is the URL the auth service sends the user back to.
func appURL(rt *runtime) string {
	if u := strings.TrimSpace(rt.cfg.AppURL); u != "" {
		return u
	}
	return "http://localhost/"
}

// requireAuth runs the guard for annotated commands.
func requireAuth(ctx context.Context, cmd *cobra.Command) error {
	rt := currentApp()
	if !rt.cfg.Auth || rt.offline {
		return nil
	}
	nav := &terminalNavigator{out: rt.errOut}
	state, err := newGuard(rt, nav, false).Check(ctx, appURL(rt))
	if err != nil {
		return err
	}
	if !state.Authorized {
		return auth.ErrNotAuthorized
	}
	logging.LogEvent("[AUTH] %s authorized as %s", cmd.CommandPath(), state.UserID)
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a session token",
	Long:  `The 'login' command accepts either the URL the auth service redirected to (carrying the token in its t parameter) or a raw token, verifies it, and stores it in the session file. Without arguments it prints the sign-in link.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		rawURL, _ := cmd.Flags().GetString("url")
		token, _ := cmd.Flags().GetString("token")

		current := appURL(rt)
		switch {
		case rawURL != "":
			current = rawURL
		case token != "":
			current = withTokenParam(current, token)
		}

		nav := &terminalNavigator{out: rt.out}
		state, err := newGuard(rt, nav, true).Check(cmd.Context(), current)
		if err != nil {
			return err
		}
		if !state.Authorized {
			return auth.ErrNotAuthorized
		}
		return rt.emit(state, func() string {
			return fmt.Sprintf("Signed in as %s", state.UserID)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		if err := rt.session.ClearAuthToken(); err != nil {
			return err
		}
		fmt.Fprintln(rt.out, "Signed out.")
		return nil
	},
}

// whoami is the decoded view of the stored token.
type whoami struct {
	UserID  string    `json:"userId"`
	Expiry  time.Time `json:"expiry"`
	Expired bool      `json:"expired"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session token's user and expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		raw := rt.session.AuthToken()
		if raw == "" {
			return errors.New("not signed in")
		}
		tok, err := auth.DecodeToken(raw)
		if err != nil {
			return err
		}
		info := whoami{
			UserID:  tok.ID,
			Expiry:  time.UnixMilli(tok.Expiry).UTC(),
			Expired: tok.Expired(time.Now()),
		}
		return rt.emit(info, func() string {
			line := fmt.Sprintf("User %s, token expires %s", info.UserID, info.Expiry.Format(time.RFC3339))
			if info.Expired {
				line += " (expired; it is re-checked with the auth service on next use)"
			}
			return line
		})
	},
}

func withTokenParam(raw, token string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("t", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func init() {
	loginCmd.Flags().String("url", "", "URL the auth service redirected to")
	loginCmd.Flags().String("token", "", "raw session token")
	loginCmd.MarkFlagsMutuallyExclusive("url", "token")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
