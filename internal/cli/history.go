// internal/cli/history.go
package routerbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/report"
)

// historyCmd groups commands over saved dataset evaluations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved dataset evaluations",
	Long:  `The 'history' commands read the local store that every completed dataset watch is saved to.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved evaluations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		limit, _ := cmd.Flags().GetInt("limit")
		store, err := rt.history()
		if err != nil {
			return err
		}
		records, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return rt.emit(records, func() string { return report.History(records) })
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one saved evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		store, err := rt.history()
		if err != nil {
			return err
		}
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return rt.emit(rec, func() string {
			return report.Results(rec.Results, rec.Stats)
		})
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of evaluations to list")
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
