// internal/cli/scenarios.go
package routerbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/report"
)

// scenariosCmd implements 'scenarios [department]'.
var scenariosCmd = &cobra.Command{
	Use:         "scenarios [department]",
	Short:       "List canned prompt scenarios for a department",
	Long:        `The 'scenarios' command lists the backend's example prompts for a department (Finance, Marketing or Product). The configured department is used when none is given.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		department := rt.cfg.DepartmentOrDefault()
		if len(args) == 1 {
			department = args[0]
		}
		list, err := rt.backend.Scenarios(cmd.Context(), department)
		if err != nil {
			return err
		}
		return rt.emit(list, func() string {
			return report.Scenarios(department, list)
		})
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
