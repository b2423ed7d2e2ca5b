package replay

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/dataset"
	"github.com/mwiater/routerbench/internal/logging"
	"github.com/mwiater/routerbench/internal/pricing"
)

type job struct {
	status api.JobStatus
	rows   []dataset.Row
}

// SubmitDataset validates a CSV upload and queues a job for it.
func (b *Backend) SubmitDataset(ctx context.Context, fileName string, file io.Reader) (api.SubmitResponse, error) {
	if err := dataset.CheckFileName(fileName); err != nil {
		return api.SubmitResponse{}, api.InvalidInput(err)
	}
	rows, err := dataset.Parse(file)
	if err != nil {
		return api.SubmitResponse{}, api.InvalidInput(err)
	}
	if err := dataset.CheckLimit(rows); err != nil {
		return api.SubmitResponse{}, api.InvalidInput(err)
	}

	id := uuid.NewString()
	j := &job{
		rows: rows,
		status: api.JobStatus{
			JobID:     id,
			Status:    api.JobQueued,
			TotalRows: len(rows),
			CreatedAt: b.opts.Now().UTC().Format(time.RFC3339),
		},
	}
	b.mu.Lock()
	b.jobs[id] = j
	b.mu.Unlock()
	logging.LogEvent("[REPLAY] queued job %s with %d rows from %s", id, len(rows), fileName)

	return api.SubmitResponse{
		JobID:     id,
		Status:    api.JobQueued,
		TotalRows: len(rows),
		Message:   fmt.Sprintf("Dataset evaluation started for %d prompts", len(rows)),
	}, nil
}

// JobStatus reports a job and advances it by RowsPerPoll rows.
func (b *Backend) JobStatus(ctx context.Context, jobID string) (api.JobStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.jobs[jobID]
	if !ok {
		return api.JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if !j.status.Status.Terminal() {
		j.status.ProcessedRows = min(j.status.ProcessedRows+b.opts.RowsPerPoll, j.status.TotalRows)
		j.status.Progress = float64(j.status.ProcessedRows) / float64(j.status.TotalRows) * 100
		if j.status.ProcessedRows >= j.status.TotalRows {
			j.status.Status = api.JobCompleted
			j.status.CompletedAt = b.opts.Now().UTC().Format(time.RFC3339)
		} else {
			j.status.Status = api.JobProcessing
		}
	}
	return j.status, nil
}

// Fail marks a job as failed with message.
func (b *Backend) Fail(jobID, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	j.status.Status = api.JobFailed
	j.status.ErrorMessage = message
	return nil
}

// JobResults pairs each uploaded prompt with a recorded evaluation row.
func (b *Backend) JobResults(ctx context.Context, jobID string) (api.DatasetEvaluationResults, error) {
	b.mu.Lock()
	j, ok := b.jobs[jobID]
	var (
		status api.JobStatus
		rows   []dataset.Row
	)
	if ok {
		status = j.status
		rows = append(rows, j.rows...)
	}
	b.mu.Unlock()

	if !ok {
		return api.DatasetEvaluationResults{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if status.Status != api.JobCompleted {
		return api.DatasetEvaluationResults{}, fmt.Errorf("%w: %s is %s", ErrJobNotComplete, jobID, status.Status)
	}

	results := make([]api.RowResult, 0, len(rows))
	for i, row := range rows {
		results = append(results, b.rowResult(i, row))
	}
	return api.DatasetEvaluationResults{
		JobID:       jobID,
		Status:      string(status.Status),
		CompletedAt: status.CompletedAt,
		Summary:     serverSummary(results),
		Results:     results,
	}, nil
}

// DeleteJob forgets a job.
func (b *Backend) DeleteJob(ctx context.Context, jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.jobs[jobID]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	delete(b.jobs, jobID)
	return nil
}

func (b *Backend) rowResult(i int, row dataset.Row) api.RowResult {
	rec := recorded[i%len(recorded)]
	graded := row.GroundTruth != ""

	rb, rl := b.table.RouterCost(rec.routerModel, rec.promptTokens, rec.routerCompletion)
	bb, bl := b.table.BenchmarkCost(recordedBenchmark, rec.promptTokens, rec.benchmarkCompletion)

	out := api.RowResult{
		RowIndex: i,
		Prompt:   row.Prompt,
		Router: api.RowOutcome{
			ModelType:        rec.routerModel,
			Output:           rec.routerSummary,
			LatencyMs:        rec.routerLatencyMs,
			PromptTokens:     rec.promptTokens,
			CompletionTokens: rec.routerCompletion,
			Cost:             costPtr(rb.Total),
			PricingWarning:   warning(rl),
			CostBreakdown: &api.CostBreakdown{
				InputCost:       pricing.Round6(rb.InputCost),
				OutputCost:      pricing.Round6(rb.OutputCost),
				RouterSurcharge: pricing.Round6(rb.RouterSurcharge),
			},
		},
		Benchmark: api.RowOutcome{
			ModelType:        recordedBenchmark,
			Output:           rec.benchmarkSummary,
			LatencyMs:        rec.benchmarkLatencyMs,
			PromptTokens:     rec.promptTokens,
			CompletionTokens: rec.benchmarkCompletion,
			Cost:             costPtr(bb.Total),
			PricingWarning:   warning(bl),
			CostBreakdown: &api.CostBreakdown{
				InputCost:  pricing.Round6(bb.InputCost),
				OutputCost: pricing.Round6(bb.OutputCost),
			},
		},
	}
	if graded {
		ra, ba := rec.routerAccuracy, rec.benchmarkAccuracy
		evalMs := float64(gradingMs + 37*i)
		out.Router.Accuracy = &ra
		out.Benchmark.Accuracy = &ba
		out.AccuracyEvaluationTimeMs = &evalMs
	}
	return out
}

// serverSummary averages accuracy over graded rows only, matching what a
// grading backend reports.
func serverSummary(rows []api.RowResult) api.ResultsSummary {
	s := aggregate.Summarize(rows)
	return api.ResultsSummary{
		TotalRows:                 s.Rows,
		AvgRouterLatencyMs:        s.AvgRouterLatencyMs,
		AvgBenchmarkLatencyMs:     s.AvgBenchmarkLatencyMs,
		TotalRouterCost:           s.TotalRouterCost,
		TotalBenchmarkCost:        s.TotalBenchmarkCost,
		CostSavingsPercent:        round1(s.CostSavings.Value),
		LatencyImprovementPercent: round1(s.LatencySavings.Value),
		AvgRouterAccuracy:         s.GradedRouterAccuracy,
		AvgBenchmarkAccuracy:      s.GradedBenchmarkAccuracy,
	}
}

func warning(l pricing.Lookup) string {
	if l.Source == pricing.Fallback {
		return l.Reason
	}
	return ""
}

func costPtr(v float64) *float64 {
	r := pricing.Round6(v)
	return &r
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
