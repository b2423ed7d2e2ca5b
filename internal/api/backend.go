// Package api talks to the routing demo backend and defines its wire types.
package api

import (
	"context"
	"io"
)

// Backend is the set of operations the routing demo backend exposes.
// *Client implements it over HTTP; the replay package implements it offline.
type Backend interface {
	Scenarios(ctx context.Context, department string) ([]Scenario, error)
	Pricing(ctx context.Context) (PricingData, error)
	Route(ctx context.Context, prompt string) (ModelResponse, error)
	Benchmark(ctx context.Context, prompt string) (ModelResponse, error)
	RouteComparison(ctx context.Context, prompt string) (ComparisonResponse, error)
	AccuracyComparison(ctx context.Context, prompt, groundTruth string) (AccuracyComparisonResponse, error)
	GroundTruth(ctx context.Context, scenarioID string) (GroundTruth, error)
	SubmitDataset(ctx context.Context, fileName string, file io.Reader) (SubmitResponse, error)
	JobStatus(ctx context.Context, jobID string) (JobStatus, error)
	JobResults(ctx context.Context, jobID string) (DatasetEvaluationResults, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// Endpoint paths.
const (
	PathScenarios          = "/api/scenarios/"
	PathPricing            = "/api/pricing"
	PathRoute              = "/api/route"
	PathBenchmark          = "/api/benchmark"
	PathRouteComparison    = "/api/route-comparison"
	PathAccuracyComparison = "/api/accuracy-comparison"
	PathGroundTruth        = "/api/ground-truth/"
	PathSubmit             = "/api/dataset-evaluation/submit"
	PathStatus             = "/api/dataset-evaluation/status/"
	PathResults            = "/api/dataset-evaluation/results/"
	PathJob                = "/api/dataset-evaluation/job/"
)

// PromptRequest is the body of route, benchmark and route-comparison calls.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// AccuracyRequest is the body of an accuracy-comparison call.
type AccuracyRequest struct {
	Prompt      string `json:"prompt"`
	GroundTruth string `json:"ground_truth,omitempty"`
}
