// internal/metrics/provider.go
package metrics

import (
	"context"
	"io"

	"github.com/mwiater/routerbench/internal/api"
)

// Backend is a decorator that times every call on a wrapped api.Backend.
// Model responses that arrive without client timing (an in-process backend)
// are stamped with the measured time, or the server time when that is larger.
type Backend struct {
	wrapped    api.Backend
	aggregator *Aggregator
}

var _ api.Backend = (*Backend)(nil)

// NewBackend wraps b so that its calls are recorded in agg.
func NewBackend(b api.Backend, agg *Aggregator) *Backend {
	return &Backend{wrapped: b, aggregator: agg}
}

func (b *Backend) record(op string, responseMs, networkMs float64) {
	if b.aggregator != nil {
		b.aggregator.Record(op, responseMs, networkMs)
	}
}

func (b *Backend) stamp(op string, resp *api.ModelResponse, measured float64) {
	if resp.ResponseTimeMs == nil {
		rt := max(measured, resp.ServerMs())
		net := api.NetworkMs(rt, resp.ServerMs())
		resp.ResponseTimeMs = &rt
		resp.NetworkMs = &net
	}
	net := 0.0
	if resp.NetworkMs != nil {
		net = *resp.NetworkMs
	}
	b.record(op, *resp.ResponseTimeMs, net)
}

// Scenarios passes the call through and records its time.
func (b *Backend) Scenarios(ctx context.Context, department string) ([]api.Scenario, error) {
	var out []api.Scenario
	ms, err := api.Measure(func() (err error) {
		out, err = b.wrapped.Scenarios(ctx, department)
		return err
	})
	if err == nil {
		b.record("scenarios", ms, 0)
	}
	return out, err
}

// Pricing passes the call through and records its time.
func (b *Backend) Pricing(ctx context.Context) (api.PricingData, error) {
	var out api.PricingData
	ms, err := api.Measure(func() (err error) {
		out, err = b.wrapped.Pricing(ctx)
		return err
	})
	if err == nil {
		b.record("pricing", ms, 0)
	}
	return out, err
}

// Route records the router call.
func (b *Backend) Route(ctx context.Context, prompt string) (api.ModelResponse, error) {
	return b.invoke(ctx, "route", prompt, b.wrapped.Route)
}

// Benchmark records the benchmark call.
func (b *Backend) Benchmark(ctx context.Context, prompt string) (api.ModelResponse, error) {
	return b.invoke(ctx, "benchmark", prompt, b.wrapped.Benchmark)
}

func (b *Backend) invoke(ctx context.Context, op, prompt string, fn func(context.Context, string) (api.ModelResponse, error)) (api.ModelResponse, error) {
	var out api.ModelResponse
	ms, err := api.Measure(func() (err error) {
		out, err = fn(ctx, prompt)
		return err
	})
	if err != nil {
		return out, err
	}
	b.stamp(op, &out, ms)
	return out, nil
}

// RouteComparison records the paired call against the router timing.
func (b *Backend) RouteComparison(ctx context.Context, prompt string) (api.ComparisonResponse, error) {
	var out api.ComparisonResponse
	ms, err := api.Measure(func() (err error) {
		out, err = b.wrapped.RouteComparison(ctx, prompt)
		return err
	})
	if err != nil {
		return out, err
	}
	shared := max(ms, out.Router.ServerMs(), out.Benchmark.ServerMs())
	if out.Benchmark.ResponseTimeMs == nil {
		net := api.NetworkMs(shared, out.Benchmark.ServerMs())
		out.Benchmark.ResponseTimeMs, out.Benchmark.NetworkMs = &shared, &net
	}
	b.stamp("route-comparison", &out.Router, shared)
	return out, nil
}

// AccuracyComparison records the graded comparison.
func (b *Backend) AccuracyComparison(ctx context.Context, prompt, groundTruth string) (api.AccuracyComparisonResponse, error) {
	var out api.AccuracyComparisonResponse
	ms, err := api.Measure(func() (err error) {
		out, err = b.wrapped.AccuracyComparison(ctx, prompt, groundTruth)
		return err
	})
	if err != nil {
		return out, err
	}
	if out.Timing.ClientTotalMs == nil {
		total := max(ms, out.Timing.TotalMs)
		out.Timing.ClientTotalMs = &total
	}
	b.record("accuracy-comparison", *out.Timing.ClientTotalMs, api.NetworkMs(*out.Timing.ClientTotalMs, out.Timing.TotalMs))
	return out, nil
}

// GroundTruth passes the call through.
func (b *Backend) GroundTruth(ctx context.Context, scenarioID string) (api.GroundTruth, error) {
	return b.wrapped.GroundTruth(ctx, scenarioID)
}

// SubmitDataset passes the call through.
func (b *Backend) SubmitDataset(ctx context.Context, fileName string, file io.Reader) (api.SubmitResponse, error) {
	return b.wrapped.SubmitDataset(ctx, fileName, file)
}

// JobStatus passes the call through.
func (b *Backend) JobStatus(ctx context.Context, jobID string) (api.JobStatus, error) {
	return b.wrapped.JobStatus(ctx, jobID)
}

// JobResults passes the call through.
func (b *Backend) JobResults(ctx context.Context, jobID string) (api.DatasetEvaluationResults, error) {
	return b.wrapped.JobResults(ctx, jobID)
}

// DeleteJob passes the call through.
func (b *Backend) DeleteJob(ctx context.Context, jobID string) error {
	return b.wrapped.DeleteJob(ctx, jobID)
}
