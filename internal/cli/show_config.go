// internal/cli/show_config.go
package routerbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/appconfig"
	"github.com/mwiater/routerbench/internal/report"
)

// showConfigCmd implements 'show config'.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config, environment and flags are merged properly.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		if rt.cfg.JSONMode {
			return printJSON(rt.out, rt.cfg)
		}
		appconfig.ShowConfig(rt.out, rt.configFile, rt.cfg)
		return nil
	},
}

// showMetricsCmd implements 'show metrics'.
var showMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show client-side timing statistics per backend operation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		if reset, _ := cmd.Flags().GetBool("reset"); reset {
			if err := rt.timings.Reset(); err != nil {
				return err
			}
		}
		ops := rt.timings.Snapshot()
		return rt.emit(ops, func() string { return report.Metrics(ops) })
	},
}

func init() {
	showMetricsCmd.Flags().Bool("reset", false, "clear recorded timings first")
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showMetricsCmd)
}
