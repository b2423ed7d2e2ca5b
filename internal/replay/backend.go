// Package replay is an offline Backend that serves canned scenarios, keyword
// routed mock responses and recorded dataset evaluations.
package replay

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/pricing"
)

var (
	ErrScenarioNotFound = fmt.Errorf("scenario %w", api.ErrNotFound)
	ErrJobNotFound      = fmt.Errorf("job %w", api.ErrNotFound)
	ErrJobNotComplete   = fmt.Errorf("job %w", api.ErrNotReady)
)

// Options tunes the replay backend.
type Options struct {
	// DelayScale multiplies simulated latencies into real sleeps. Zero disables sleeping.
	DelayScale float64
	// RowsPerPoll is how many rows a job advances per status query.
	RowsPerPoll int
	// Now overrides the clock used for job timestamps.
	Now func() time.Time
}

// Backend implements api.Backend without a network.
type Backend struct {
	opts  Options
	table *pricing.Table

	mu   sync.Mutex
	jobs map[string]*job
}

var _ api.Backend = (*Backend)(nil)

// New returns a replay backend.
func New(opts Options) *Backend {
	if opts.RowsPerPoll <= 0 {
		opts.RowsPerPoll = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	data := PricingTable
	return &Backend{
		opts:  opts,
		table: pricing.NewTable(&data),
		jobs:  map[string]*job{},
	}
}

// Scenarios returns the canned prompts for a department. Unknown departments yield an empty list.
func (b *Backend) Scenarios(ctx context.Context, department string) ([]api.Scenario, error) {
	list := scenarioPrompts[department]
	out := make([]api.Scenario, len(list))
	copy(out, list)
	return out, nil
}

// Pricing returns the canned pricing table.
func (b *Backend) Pricing(ctx context.Context) (api.PricingData, error) {
	data := api.PricingData{PricingInfo: PricingTable.PricingInfo, Models: map[string]pricing.Rate{}}
	for k, v := range PricingTable.Models {
		data.Models[k] = v
	}
	return data, nil
}

// Route picks a mock tier from keywords in the prompt.
func (b *Backend) Route(ctx context.Context, prompt string) (api.ModelResponse, error) {
	model, output, completion := routeByKeyword(prompt)
	return b.respond(ctx, model, output, prompt, completion, routerBaseMs(model))
}

// Benchmark answers with the fixed benchmark model.
func (b *Backend) Benchmark(ctx context.Context, prompt string) (api.ModelResponse, error) {
	return b.respond(ctx, ModelBenchmark,
		"This is a high-quality benchmark response from the premium model. It demonstrates the quality standard the router is compared against.",
		prompt, 150, 9000)
}

// RouteComparison runs both models.
func (b *Backend) RouteComparison(ctx context.Context, prompt string) (api.ComparisonResponse, error) {
	var out api.ComparisonResponse
	var err error
	if out.Router, err = b.Route(ctx, prompt); err != nil {
		return api.ComparisonResponse{}, err
	}
	if out.Benchmark, err = b.Benchmark(ctx, prompt); err != nil {
		return api.ComparisonResponse{}, err
	}
	return out, nil
}

// AccuracyComparison runs both models and grades them against groundTruth.
func (b *Backend) AccuracyComparison(ctx context.Context, prompt, groundTruth string) (api.AccuracyComparisonResponse, error) {
	cmp, err := b.RouteComparison(ctx, prompt)
	if err != nil {
		return api.AccuracyComparisonResponse{}, err
	}
	out := api.AccuracyComparisonResponse{
		ScenarioID: scenarioIDFor(prompt),
		Router:     api.ModelResponseWithAccuracy{ModelResponse: cmp.Router},
		Benchmark:  api.ModelResponseWithAccuracy{ModelResponse: cmp.Benchmark},
	}
	routerEval := grade(cmp.Router.ModelType, prompt, groundTruth)
	benchEval := grade(cmp.Benchmark.ModelType, prompt, groundTruth)
	out.Router.AccuracyEvaluation = &routerEval
	out.Benchmark.AccuracyEvaluation = &benchEval

	gen := cmp.Router.ServerMs() + cmp.Benchmark.ServerMs()
	var evalMs float64
	if strings.TrimSpace(groundTruth) != "" {
		evalMs = 2 * gradingMs
		if err := b.sleep(ctx, evalMs); err != nil {
			return api.AccuracyComparisonResponse{}, err
		}
	}
	out.Timing = api.AccuracyTiming{
		ResponseGenerationMs: gen,
		AccuracyEvaluationMs: evalMs,
		TotalMs:              gen + evalMs,
	}
	return out, nil
}

// GroundTruth returns the expected answer for a canned scenario.
func (b *Backend) GroundTruth(ctx context.Context, scenarioID string) (api.GroundTruth, error) {
	gt, ok := groundTruths[scenarioID]
	if !ok {
		return api.GroundTruth{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	return gt, nil
}

func (b *Backend) respond(ctx context.Context, model, output, prompt string, completion int, baseMs float64) (api.ModelResponse, error) {
	latency := baseMs + float64(hash(model+prompt)%500)
	if err := b.sleep(ctx, latency); err != nil {
		return api.ModelResponse{}, err
	}
	promptTokens := len(strings.Fields(prompt))
	return api.ModelResponse{
		ModelType:          model,
		Output:             output,
		PromptTokens:       promptTokens,
		CompletionTokens:   completion,
		TotalTokens:        promptTokens + completion,
		ServerProcessingMs: &latency,
	}, nil
}

func (b *Backend) sleep(ctx context.Context, ms float64) error {
	if b.opts.DelayScale <= 0 || ms <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(ms * b.opts.DelayScale * float64(time.Millisecond)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// routeByKeyword mirrors how the demo backend routes without model credentials.
func routeByKeyword(prompt string) (model, output string, completion int) {
	lower := strings.ToLower(prompt)
	model, completion = ModelLightweight, 25
	output = "This is a basic mock response from the model router."
	if strings.Contains(lower, "analyze") || strings.Contains(lower, "compare") || strings.Contains(lower, "review") {
		model, completion = ModelStandard, 75
		output = "This is a more detailed mock analysis from the model router."
	}
	if strings.Contains(lower, "forecast") || strings.Contains(lower, "predict") || strings.Contains(lower, "generate strategy") {
		model, completion = ModelPremium, 200
		output = "This is a comprehensive mock forecast from the model router."
	}
	return model, output, completion
}

func routerBaseMs(model string) float64 {
	switch model {
	case ModelPremium:
		return 6000
	case ModelStandard:
		return 2500
	default:
		return 800
	}
}

func scenarioIDFor(prompt string) string {
	p := strings.TrimSpace(prompt)
	for _, list := range scenarioPrompts {
		for _, s := range list {
			if s.Prompt == p {
				return s.ID
			}
		}
	}
	return "custom"
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = io.WriteString(h, s)
	return h.Sum32()
}
