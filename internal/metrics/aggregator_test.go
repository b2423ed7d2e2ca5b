package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwiater/routerbench/internal/replay"
)

func TestAggregatorRecordAndBuckets(t *testing.T) {
	agg := NewAggregator("")
	agg.Record("route", 500, 20)
	agg.Record("route", 1500, 40)
	agg.Record("benchmark", 9000, 10)

	snap := agg.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(snap))
	}
	if snap[0].Operation != "benchmark" || snap[1].Operation != "route" {
		t.Fatalf("expected sorted operations, got %q %q", snap[0].Operation, snap[1].Operation)
	}
	route := snap[1]
	if route.OverallStats.TotalRequests != 2 {
		t.Fatalf("expected 2 route requests, got %d", route.OverallStats.TotalRequests)
	}
	if route.OverallStats.ResponseMs.Mean != 1000 {
		t.Fatalf("expected mean 1000, got %v", route.OverallStats.ResponseMs.Mean)
	}
	if len(route.LatencyBuckets) != 2 || route.LatencyBuckets[0].Bucket != "0-1s" || route.LatencyBuckets[1].Bucket != "1-5s" {
		t.Fatalf("unexpected buckets: %+v", route.LatencyBuckets)
	}
}

func TestAggregatorSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "timings.json")
	agg := NewAggregator(path)
	agg.Record("pricing", 12, 12)
	if err := agg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewAggregator(path)
	snap := reloaded.Snapshot()
	if len(snap) != 1 || snap[0].Operation != "pricing" || snap[0].OverallStats.NetworkMs.Max != 12 {
		t.Fatalf("unexpected reloaded metrics: %+v", snap)
	}

	if err := reloaded.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(NewAggregator(path).Snapshot()) != 0 {
		t.Fatal("expected empty metrics after reset")
	}
}

func TestGetBucket(t *testing.T) {
	cases := map[float64]string{0: "0-1s", 999: "0-1s", 1000: "1-5s", 29999: "5-30s", 60000: "30-120s", 120000: "120s+"}
	for ms, want := range cases {
		if got := getBucket(ms); got != want {
			t.Fatalf("getBucket(%v) = %q, want %q", ms, got, want)
		}
	}
}

func TestBackendStampsInProcessResponses(t *testing.T) {
	agg := NewAggregator("")
	b := NewBackend(replay.New(replay.Options{Now: func() time.Time { return time.Unix(0, 0) }}), agg)

	resp, err := b.Route(context.Background(), "Summarize the quarterly revenue report")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if resp.ResponseTimeMs == nil || resp.NetworkMs == nil {
		t.Fatal("expected timing fields to be filled")
	}
	if *resp.ResponseTimeMs < resp.ServerMs() {
		t.Fatalf("response time %v below server time %v", *resp.ResponseTimeMs, resp.ServerMs())
	}

	cmp, err := b.RouteComparison(context.Background(), "Draft a launch email")
	if err != nil {
		t.Fatalf("route comparison: %v", err)
	}
	if *cmp.Router.ResponseTimeMs != *cmp.Benchmark.ResponseTimeMs {
		t.Fatal("expected both sides to share one clock")
	}

	acc, err := b.AccuracyComparison(context.Background(), "Draft a launch email", "")
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if acc.Timing.ClientTotalMs == nil || *acc.Timing.ClientTotalMs < acc.Timing.TotalMs {
		t.Fatalf("unexpected client total: %+v", acc.Timing)
	}

	ops := map[string]bool{}
	for _, m := range agg.Snapshot() {
		ops[m.Operation] = true
	}
	for _, op := range []string{"route", "route-comparison", "accuracy-comparison"} {
		if !ops[op] {
			t.Fatalf("expected %s to be recorded, got %v", op, ops)
		}
	}
}
