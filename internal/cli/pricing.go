// internal/cli/pricing.go
package routerbench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/pricing"
	"github.com/mwiater/routerbench/internal/report"
)

// pricingCmd implements 'pricing [--validate FILE]'.
var pricingCmd = &cobra.Command{
	Use:         "pricing",
	Short:       "Show the model pricing table",
	Long:        `The 'pricing' command prints the backend's per-1M-token rates. With --validate it checks a local pricing file against the pricing schema instead.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		if file, _ := cmd.Flags().GetString("validate"); file != "" {
			data, err := pricing.LoadFile(file)
			if err != nil {
				return err
			}
			return rt.emit(data, func() string {
				return fmt.Sprintf("%s is valid (%d models)\n\n%s", file, len(data.Models), report.Pricing(data))
			})
		}

		data, err := rt.backend.Pricing(cmd.Context())
		if err != nil {
			return err
		}
		return rt.emit(data, func() string {
			return report.Pricing(data)
		})
	},
}

func init() {
	pricingCmd.Flags().String("validate", "", "validate a local pricing JSON file")
	rootCmd.AddCommand(pricingCmd)
}
