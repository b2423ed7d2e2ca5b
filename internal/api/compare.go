package api

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// CompareCallbacks are invoked as soon as each side returns. They may run
// concurrently with each other.
type CompareCallbacks struct {
	OnRouter    func(ModelResponse, error)
	OnBenchmark func(ModelResponse, error)
}

// CompareResult holds both sides of a parallel comparison.
type CompareResult struct {
	Router       ModelResponse
	RouterErr    error
	Benchmark    ModelResponse
	BenchmarkErr error
}

// Err joins the per-side errors.
func (r CompareResult) Err() error {
	return errors.Join(r.RouterErr, r.BenchmarkErr)
}

// Compare calls Route and Benchmark concurrently. A failure on one side does
// not cancel the other.
func Compare(ctx context.Context, b Backend, prompt string, cb CompareCallbacks) CompareResult {
	var (
		g   errgroup.Group
		res CompareResult
	)
	g.Go(func() error {
		res.Router, res.RouterErr = b.Route(ctx, prompt)
		if cb.OnRouter != nil {
			cb.OnRouter(res.Router, res.RouterErr)
		}
		return nil
	})
	g.Go(func() error {
		res.Benchmark, res.BenchmarkErr = b.Benchmark(ctx, prompt)
		if cb.OnBenchmark != nil {
			cb.OnBenchmark(res.Benchmark, res.BenchmarkErr)
		}
		return nil
	})
	_ = g.Wait()
	return res
}
