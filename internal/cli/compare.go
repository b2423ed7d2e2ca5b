// internal/cli/compare.go
package routerbench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/pricing"
	"github.com/mwiater/routerbench/internal/report"
)

// comparison is the JSON shape of one router-vs-benchmark run.
type comparison struct {
	Router        api.ModelResponse `json:"router"`
	Benchmark     api.ModelResponse `json:"benchmark"`
	RouterCost    pricing.Breakdown `json:"router_cost"`
	BenchmarkCost pricing.Breakdown `json:"benchmark_cost"`
	Latency       aggregate.Latency `json:"latency"`
	CostSavings   aggregate.Percent `json:"cost_savings"`
	Warnings      []string          `json:"pricing_warnings,omitempty"`
	RouterErr     string            `json:"router_error,omitempty"`
	BenchmarkErr  string            `json:"benchmark_error,omitempty"`
}

// repeatSummary is the JSON shape of --repeat.
type repeatSummary struct {
	Runs      []comparison          `json:"runs"`
	Router    aggregate.RunningStat `json:"router_latency_ms"`
	Benchmark aggregate.RunningStat `json:"benchmark_latency_ms"`
}

var compareCmd = &cobra.Command{
	Use:   "compare PROMPT",
	Short: "Run a prompt through the router and the benchmark and compare them",
	Long: `The 'compare' command sends the prompt to both models. By default the two calls run concurrently, each timed on its own clock, and each side is reported as soon as it returns; one side failing does not stop the other.
With --paired a single server-side comparison request is made instead. --repeat runs the comparison several times and reports running latency statistics.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		paired, _ := cmd.Flags().GetBool("paired")
		repeat, _ := cmd.Flags().GetInt("repeat")
		if repeat < 1 {
			return errors.New("--repeat must be at least 1")
		}
		prompt := strings.Join(args, " ")
		ctx := cmd.Context()
		table := rt.pricingTable(ctx)

		var (
			runs             []comparison
			routerLat, bmLat aggregate.RunningStat
		)
		for i := 0; i < repeat; i++ {
			c, err := runComparison(ctx, rt, table, prompt, paired, repeat == 1)
			if err != nil {
				return err
			}
			runs = append(runs, c)
			if c.RouterErr == "" {
				routerLat.Add(c.Latency.RouterMs)
			}
			if c.BenchmarkErr == "" {
				bmLat.Add(c.Latency.BenchmarkMs)
			}
		}

		if repeat == 1 {
			c := runs[0]
			return rt.emit(c, func() string {
				return report.Compare(report.Comparison{
					Router:        c.Router,
					Benchmark:     c.Benchmark,
					RouterCost:    c.RouterCost,
					BenchmarkCost: c.BenchmarkCost,
					Warnings:      c.Warnings,
				}, outputWidth)
			})
		}
		summary := repeatSummary{Runs: runs, Router: routerLat, Benchmark: bmLat}
		return rt.emit(summary, func() string {
			return report.Repeat(routerLat, bmLat)
		})
	},
}

// runComparison performs one paired or concurrent comparison. When progress
// is set and output is not JSON, each side is announced as it finishes.
func runComparison(ctx context.Context, rt *runtime, table *pricing.Table, prompt string, paired, progress bool) (comparison, error) {
	var c comparison
	if paired {
		resp, err := rt.backend.RouteComparison(ctx, prompt)
		if err != nil {
			return c, err
		}
		c.Router, c.Benchmark = resp.Router, resp.Benchmark
	} else {
		var mu sync.Mutex
		announce := func(label string) func(api.ModelResponse, error) {
			if !progress || rt.cfg.JSONMode {
				return nil
			}
			return func(resp api.ModelResponse, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fmt.Fprintf(rt.errOut, "%s failed: %v\n", label, err)
					return
				}
				fmt.Fprintf(rt.errOut, "%s finished in %.0fms\n", label, resp.LatencyMs())
			}
		}
		res := api.Compare(ctx, rt.backend, prompt, api.CompareCallbacks{
			OnRouter:    announce("Router"),
			OnBenchmark: announce("Benchmark"),
		})
		if res.RouterErr != nil && res.BenchmarkErr != nil {
			return c, res.Err()
		}
		c.Router, c.Benchmark = res.Router, res.Benchmark
		if res.RouterErr != nil {
			c.RouterErr = res.RouterErr.Error()
		}
		if res.BenchmarkErr != nil {
			c.BenchmarkErr = res.BenchmarkErr.Error()
		}
	}

	var tracker pricing.Tracker
	var routerLookup, bmLookup pricing.Lookup
	c.RouterCost, routerLookup = table.RouterCost(c.Router.ModelType, c.Router.PromptTokens, c.Router.CompletionTokens)
	c.BenchmarkCost, bmLookup = table.BenchmarkCost(c.Benchmark.ModelType, c.Benchmark.PromptTokens, c.Benchmark.CompletionTokens)
	tracker.Note(c.Router.ModelType, routerLookup)
	tracker.Note(c.Benchmark.ModelType, bmLookup)
	for _, model := range tracker.Models() {
		c.Warnings = append(c.Warnings, "no rate configured for "+model)
	}

	c.Latency = aggregate.CompareResponses(c.Router, c.Benchmark)
	c.CostSavings = aggregate.CostSavings(c.RouterCost.Total, c.BenchmarkCost.Total)
	if c.RouterErr != "" {
		c.Router.Error = c.RouterErr
	}
	if c.BenchmarkErr != "" {
		c.Benchmark.Error = c.BenchmarkErr
	}
	return c, nil
}

func init() {
	compareCmd.Flags().Bool("paired", false, "use the single server-side comparison endpoint")
	compareCmd.Flags().Int("repeat", 1, "number of comparisons to run")
	rootCmd.AddCommand(compareCmd)
}
