package aggregate

import (
	"math"

	"github.com/mwiater/routerbench/internal/api"
)

// Latency compares one router call against one benchmark call.
type Latency struct {
	RouterMs     float64 `json:"router_ms"`
	BenchmarkMs  float64 `json:"benchmark_ms"`
	DiffMs       float64 `json:"diff_ms"`
	Multiplier   float64 `json:"multiplier"`
	Percent      float64 `json:"percent"`
	RouterFaster bool    `json:"router_faster"`
	// Comparable is false when neither side reported a time.
	Comparable bool `json:"comparable"`
}

// CompareLatency reports how much faster the quicker side was. DiffMs is
// positive when the router saved time; Multiplier and Percent are relative to
// the slower side's perspective and are always non-negative.
func CompareLatency(routerMs, benchmarkMs float64) Latency {
	l := Latency{RouterMs: routerMs, BenchmarkMs: benchmarkMs}
	if routerMs == 0 && benchmarkMs == 0 {
		return l
	}
	l.Comparable = true
	l.DiffMs = benchmarkMs - routerMs
	l.RouterFaster = l.DiffMs > 0
	if l.RouterFaster {
		l.Multiplier = ratio(benchmarkMs, routerMs)
		l.Percent = l.DiffMs / benchmarkMs * 100
	} else {
		l.Multiplier = ratio(routerMs, benchmarkMs)
		l.Percent = -l.DiffMs / routerMs * 100
	}
	return l
}

// CompareResponses compares two model responses by their best available latency.
func CompareResponses(router, benchmark api.ModelResponse) Latency {
	return CompareLatency(router.LatencyMs(), benchmark.LatencyMs())
}

// SavedMs is the absolute time difference.
func (l Latency) SavedMs() float64 {
	return math.Abs(l.DiffMs)
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// CostSavings is the router's relative saving over the benchmark cost.
func CostSavings(routerCost, benchmarkCost float64) Percent {
	return Savings(benchmarkCost, routerCost)
}

// ScoreBand names an accuracy score.
func ScoreBand(score *float64) string {
	if score == nil {
		return "N/A"
	}
	switch s := *score; {
	case s >= 90:
		return "Excellent"
	case s >= 75:
		return "Good"
	case s >= 60:
		return "Adequate"
	case s >= 40:
		return "Poor"
	default:
		return "Failing"
	}
}
