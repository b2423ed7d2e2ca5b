// internal/cli/invoke.go
package routerbench

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/pricing"
	"github.com/mwiater/routerbench/internal/report"
)

// invocation is the JSON shape of a single model call with its cost.
type invocation struct {
	Response api.ModelResponse `json:"response"`
	Cost     pricing.Breakdown `json:"cost"`
	Pricing  string            `json:"pricing"`
	Warning  string            `json:"pricing_warning,omitempty"`
}

var routeCmd = &cobra.Command{
	Use:         "route PROMPT",
	Short:       "Send a prompt to the model router",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoke(cmd.Context(), "Model router", strings.Join(args, " "), true)
	},
}

var benchmarkCmd = &cobra.Command{
	Use:         "benchmark PROMPT",
	Short:       "Send a prompt to the fixed benchmark model",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoke(cmd.Context(), "Benchmark", strings.Join(args, " "), false)
	},
}

func runInvoke(ctx context.Context, title, prompt string, router bool) error {
	rt := currentApp()
	call := rt.backend.Benchmark
	if router {
		call = rt.backend.Route
	}
	resp, err := call(ctx, prompt)
	if err != nil {
		return err
	}

	table := rt.pricingTable(ctx)
	cost, lookup := costOf(table, resp, router)
	inv := invocation{Response: resp, Cost: cost, Pricing: lookup.Source.String(), Warning: lookup.Reason}
	return rt.emit(inv, func() string {
		return report.Response(title, resp, cost, lookup, outputWidth)
	})
}

func costOf(table *pricing.Table, resp api.ModelResponse, router bool) (pricing.Breakdown, pricing.Lookup) {
	if router {
		return table.RouterCost(resp.ModelType, resp.PromptTokens, resp.CompletionTokens)
	}
	return table.BenchmarkCost(resp.ModelType, resp.PromptTokens, resp.CompletionTokens)
}

func init() {
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(benchmarkCmd)
}
