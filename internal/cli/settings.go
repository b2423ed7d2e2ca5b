// internal/cli/settings.go
package routerbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/report"
)

// settingsCmd groups commands over the persisted session.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change session settings",
}

// sessionView is what 'settings show' reports. The token itself is never printed.
type sessionView struct {
	File        string `json:"file"`
	OfflineMode bool   `json:"offlineMode"`
	SignedIn    bool   `json:"signedIn"`
	Backend     string `json:"effectiveBackend"`
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the session file and offline mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		view := sessionView{
			File:        rt.session.Path(),
			OfflineMode: rt.session.OfflineMode(),
			SignedIn:    rt.session.AuthToken() != "",
			Backend:     rt.source(),
		}
		return rt.emit(view, func() string {
			return fmt.Sprintf("%s\n\n  Session file: %s\n  Offline mode: %v\n  Signed in:    %v",
				report.StatusLine(rt.cfg.BackendURLOrDefault(), rt.offline, rt.cfg.JSONMode),
				view.File, view.OfflineMode, view.SignedIn)
		})
	},
}

var settingsOfflineCmd = &cobra.Command{
	Use:       "offline on|off",
	Short:     "Switch the persisted offline (replay) mode",
	Long:      `The 'offline' command persists offline mode in the session file. Other running routerbench processes pick the change up within a second.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		var on bool
		switch args[0] {
		case "on", "true":
			on = true
		case "off", "false":
			on = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		if err := rt.session.SetOfflineMode(on); err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "Offline mode %s\n", args[0])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsOfflineCmd)
	rootCmd.AddCommand(settingsCmd)
}
