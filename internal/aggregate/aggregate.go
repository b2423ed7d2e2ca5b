// Package aggregate derives summary statistics from router and benchmark results.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/pricing"
)

// Percent is a savings percentage. Defined is false when the baseline was zero.
type Percent struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// String formats the percentage with one decimal, or "0" when undefined.
func (p Percent) String() string {
	if !p.Defined {
		return "0"
	}
	return fmt.Sprintf("%.1f", p.Value)
}

// Savings is the relative reduction of candidate against baseline.
func Savings(baseline, candidate float64) Percent {
	if baseline <= 0 {
		return Percent{}
	}
	return Percent{Value: (baseline - candidate) / baseline * 100, Defined: true}
}

// Stats summarizes a batch of paired results.
type Stats struct {
	Rows                  int     `json:"rows"`
	AvgRouterLatencyMs    float64 `json:"avg_router_latency_ms"`
	AvgBenchmarkLatencyMs float64 `json:"avg_benchmark_latency_ms"`
	TotalRouterCost       float64 `json:"total_router_cost"`
	TotalBenchmarkCost    float64 `json:"total_benchmark_cost"`
	TotalRouterSurcharge  float64 `json:"total_router_surcharge"`
	// Accuracy averages count an ungraded row as zero.
	AvgRouterAccuracy    float64 `json:"avg_router_accuracy"`
	AvgBenchmarkAccuracy float64 `json:"avg_benchmark_accuracy"`
	// Graded averages only consider rows that received a score.
	GradedRouterAccuracy    *float64 `json:"graded_router_accuracy,omitempty"`
	GradedBenchmarkAccuracy *float64 `json:"graded_benchmark_accuracy,omitempty"`
	RouterGraded            int      `json:"router_graded"`
	BenchmarkGraded         int      `json:"benchmark_graded"`
	LatencySavings          Percent  `json:"latency_savings"`
	CostSavings             Percent  `json:"cost_savings"`
	FallbackModels          []string `json:"fallback_models,omitempty"`
}

// Summarize computes Stats from the rows themselves.
func Summarize(rows []api.RowResult) Stats {
	s := Stats{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}

	var (
		mrLat, bmLat, mrCost, bmCost, mrAcc, bmAcc float64
		mrGraded, bmGraded                         float64
	)
	for _, r := range rows {
		mrLat += r.Router.LatencyMs
		bmLat += r.Benchmark.LatencyMs
		mrCost += deref(r.Router.Cost)
		bmCost += deref(r.Benchmark.Cost)
		if r.Router.Accuracy != nil {
			mrAcc += *r.Router.Accuracy
			mrGraded += *r.Router.Accuracy
			s.RouterGraded++
		}
		if r.Benchmark.Accuracy != nil {
			bmAcc += *r.Benchmark.Accuracy
			bmGraded += *r.Benchmark.Accuracy
			s.BenchmarkGraded++
		}
	}
	n := float64(len(rows))
	s.AvgRouterLatencyMs = math.Round(mrLat / n)
	s.AvgBenchmarkLatencyMs = math.Round(bmLat / n)
	s.TotalRouterCost = pricing.Round6(mrCost)
	s.TotalBenchmarkCost = pricing.Round6(bmCost)
	s.AvgRouterAccuracy = math.Round(mrAcc / n)
	s.AvgBenchmarkAccuracy = math.Round(bmAcc / n)
	s.GradedRouterAccuracy = gradedAvg(mrGraded, s.RouterGraded)
	s.GradedBenchmarkAccuracy = gradedAvg(bmGraded, s.BenchmarkGraded)
	s.fillDerived(rows)
	return s
}

// FromResults prefers the server's summary for averages and totals and fills
// the remaining fields from the rows.
func FromResults(res api.DatasetEvaluationResults) Stats {
	s := Summarize(res.Results)
	sum := res.Summary
	s.Rows = sum.TotalRows
	s.AvgRouterLatencyMs = sum.AvgRouterLatencyMs
	s.AvgBenchmarkLatencyMs = sum.AvgBenchmarkLatencyMs
	s.TotalRouterCost = sum.TotalRouterCost
	s.TotalBenchmarkCost = sum.TotalBenchmarkCost
	s.AvgRouterAccuracy = deref(sum.AvgRouterAccuracy)
	s.AvgBenchmarkAccuracy = deref(sum.AvgBenchmarkAccuracy)
	s.LatencySavings = Savings(s.AvgBenchmarkLatencyMs, s.AvgRouterLatencyMs)
	s.CostSavings = Savings(s.TotalBenchmarkCost, s.TotalRouterCost)
	return s
}

func (s *Stats) fillDerived(rows []api.RowResult) {
	s.LatencySavings = Savings(s.AvgBenchmarkLatencyMs, s.AvgRouterLatencyMs)
	s.CostSavings = Savings(s.TotalBenchmarkCost, s.TotalRouterCost)

	var surcharge float64
	seen := map[string]struct{}{}
	for _, r := range rows {
		if r.Router.CostBreakdown != nil {
			surcharge += r.Router.CostBreakdown.RouterSurcharge
		}
		if r.Router.PricingWarning != "" {
			seen[r.Router.ModelType] = struct{}{}
		}
		if r.Benchmark.PricingWarning != "" {
			seen[r.Benchmark.ModelType] = struct{}{}
		}
	}
	s.TotalRouterSurcharge = pricing.Round6(surcharge)
	s.FallbackModels = nil
	for m := range seen {
		s.FallbackModels = append(s.FallbackModels, m)
	}
	sort.Strings(s.FallbackModels)
}

func gradedAvg(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	v := math.Round(sum / float64(count))
	return &v
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
