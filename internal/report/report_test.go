package report

import (
	"strings"
	"testing"
	"time"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/history"
	"github.com/mwiater/routerbench/internal/metrics"
	"github.com/mwiater/routerbench/internal/pricing"
)

func ptr(v float64) *float64 { return &v }

func TestModeLabel(t *testing.T) {
	if ModeLabel(true) != "Offline Mode" || ModeLabel(false) != "Live" {
		t.Fatalf("unexpected labels: %q %q", ModeLabel(true), ModeLabel(false))
	}
	if !strings.Contains(StatusLine("http://x", true, false), "replay") {
		t.Fatal("expected offline status line to name the replay backend")
	}
}

func TestScoreBadgeIncludesBand(t *testing.T) {
	if got := ScoreBadge(ptr(92)); !strings.Contains(got, "92 Excellent") {
		t.Fatalf("unexpected badge: %q", got)
	}
	if got := ScoreBadge(nil); !strings.Contains(got, "N/A") {
		t.Fatalf("unexpected nil badge: %q", got)
	}
}

func TestLatencyBarWidth(t *testing.T) {
	bar := LatencyBar(50, 100, 10, routerColor)
	if strings.Count(bar, "█") != 5 || strings.Count(bar, "░") != 5 {
		t.Fatalf("unexpected bar: %q", bar)
	}
	if tiny := LatencyBar(1, 1000, 10, routerColor); strings.Count(tiny, "█") != 1 {
		t.Fatalf("expected a minimum of one filled cell, got %q", tiny)
	}
	if empty := LatencyBar(0, 0, 4, routerColor); strings.Count(empty, "░") != 4 {
		t.Fatalf("expected empty bar, got %q", empty)
	}
}

func TestCompareRendersSavingsAndWarnings(t *testing.T) {
	c := Comparison{
		Router:        api.ModelResponse{ModelType: "gpt-5-nano", Output: "short", ResponseTimeMs: ptr(1000)},
		Benchmark:     api.ModelResponse{ModelType: "gpt-5", Output: "long", ResponseTimeMs: ptr(4000)},
		RouterCost:    pricing.Breakdown{Total: 0.001},
		BenchmarkCost: pricing.Breakdown{Total: 0.004},
		Warnings:      []string{"no pricing for gpt-5-nano"},
	}
	out := Compare(c, 60)
	for _, want := range []string{"gpt-5-nano", "4.0x faster", "75.0%", "no pricing for gpt-5-nano", "Router output"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLatencySummarySlower(t *testing.T) {
	out := LatencySummary(aggregate.CompareLatency(3000, 1000))
	if !strings.Contains(out, "3.0x slower") {
		t.Fatalf("unexpected summary: %q", out)
	}
	if out := LatencySummary(aggregate.CompareLatency(0, 0)); !strings.Contains(out, "no timing") {
		t.Fatalf("unexpected summary: %q", out)
	}
}

func TestResultsAndSummary(t *testing.T) {
	res := api.DatasetEvaluationResults{
		JobID: "job-1",
		Results: []api.RowResult{{
			RowIndex:  0,
			Prompt:    "Summarize Q3",
			Router:    api.RowOutcome{ModelType: "gpt-5-nano", LatencyMs: 900, Cost: ptr(0.0002), Accuracy: ptr(88)},
			Benchmark: api.RowOutcome{ModelType: "gpt-5", LatencyMs: 9000, Cost: ptr(0.002)},
		}},
	}
	stats := aggregate.Summarize(res.Results)
	out := Results(res, stats)
	for _, want := range []string{"job-1", "Summarize Q3", "$0.000200", "88", "n/a", "Summary (1 prompts)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestJobStatusDefaultsFailureMessage(t *testing.T) {
	out := JobStatus(api.JobStatus{JobID: "j", Status: api.JobFailed, TotalRows: 3})
	if !strings.Contains(out, "An error occurred during evaluation.") {
		t.Fatalf("unexpected status line: %q", out)
	}
}

func TestHistoryAndMetrics(t *testing.T) {
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := History([]history.Record{{ID: "rec-1", JobID: "job-1", Source: "live", CompletedAt: when, TotalRows: 4}})
	if !strings.Contains(out, "rec-1") || !strings.Contains(out, "2026-01-02 03:04:05") {
		t.Fatalf("unexpected history output:\n%s", out)
	}

	if out := Metrics(nil); !strings.Contains(out, "no client timings") {
		t.Fatalf("unexpected empty metrics output: %q", out)
	}
	agg := metrics.NewAggregator("")
	agg.Record("route", 1200, 200)
	if out := Metrics(agg.Snapshot()); !strings.Contains(out, "route") || !strings.Contains(out, "1.20s") {
		t.Fatalf("unexpected metrics output:\n%s", out)
	}
}

func TestPricingSortsModels(t *testing.T) {
	out := Pricing(pricing.Data{Models: map[string]pricing.Rate{
		"zeta":  {InputPer1M: 1},
		"alpha": {InputPer1M: 2},
	}})
	if strings.Index(out, "alpha") > strings.Index(out, "zeta") {
		t.Fatalf("expected sorted models:\n%s", out)
	}
}
