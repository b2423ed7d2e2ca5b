package api

import (
	"fmt"

	validator "github.com/go-playground/validator/v10"

	"github.com/mwiater/routerbench/internal/pricing"
)

// Scenario is a canned prompt example.
type Scenario struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Prompt             string `json:"prompt"`
	Complexity         string `json:"complexity"`
	QualityExpectation string `json:"qualityExpectation"`
	Department         string `json:"department,omitempty"`
	SourceDataFile     string `json:"source_data_file,omitempty"`
}

// PricingData is the /api/pricing payload.
type PricingData = pricing.Data

// ModelResponse is the result of invoking one model. ResponseTimeMs and
// NetworkMs are filled in by the client.
type ModelResponse struct {
	ModelType          string   `json:"model_type"`
	Output             string   `json:"output"`
	PromptTokens       int      `json:"prompt_tokens"`
	CompletionTokens   int      `json:"completion_tokens"`
	TotalTokens        int      `json:"total_tokens"`
	ServerProcessingMs *float64 `json:"server_processing_ms,omitempty"`
	ResponseTimeMs     *float64 `json:"response_time_ms,omitempty"`
	NetworkMs          *float64 `json:"network_ms,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// ServerMs returns the server-reported processing time, 0 when absent.
func (m ModelResponse) ServerMs() float64 {
	if m.ServerProcessingMs == nil {
		return 0
	}
	return *m.ServerProcessingMs
}

// LatencyMs returns the best available latency: client wall time, then server time.
func (m ModelResponse) LatencyMs() float64 {
	if m.ResponseTimeMs != nil && *m.ResponseTimeMs > 0 {
		return *m.ResponseTimeMs
	}
	return m.ServerMs()
}

// ComparisonResponse is the /api/route-comparison payload.
type ComparisonResponse struct {
	Router    ModelResponse `json:"router"`
	Benchmark ModelResponse `json:"benchmark"`
}

// AccuracyEvaluation is the grader's verdict. A nil Score means grading failed.
type AccuracyEvaluation struct {
	Score          *float64 `json:"score"`
	Reasoning      string   `json:"reasoning"`
	Strengths      []string `json:"strengths,omitempty"`
	Weaknesses     []string `json:"weaknesses,omitempty"`
	KeyGaps        []string `json:"key_gaps,omitempty"`
	ModelEvaluated string   `json:"model_evaluated"`
	Error          string   `json:"error,omitempty"`
}

// ModelResponseWithAccuracy is a ModelResponse plus its grade.
type ModelResponseWithAccuracy struct {
	ModelResponse
	AccuracyEvaluation *AccuracyEvaluation `json:"accuracy_evaluation,omitempty"`
}

// AccuracyTiming reports server phases plus the client's own wall time.
type AccuracyTiming struct {
	ResponseGenerationMs float64  `json:"response_generation_ms"`
	AccuracyEvaluationMs float64  `json:"accuracy_evaluation_ms"`
	TotalMs              float64  `json:"total_ms"`
	ClientTotalMs        *float64 `json:"client_total_ms,omitempty"`
}

// AccuracyComparisonResponse is the /api/accuracy-comparison payload.
type AccuracyComparisonResponse struct {
	ScenarioID string                    `json:"scenario_id"`
	Router     ModelResponseWithAccuracy `json:"router"`
	Benchmark  ModelResponseWithAccuracy `json:"benchmark"`
	Timing     AccuracyTiming            `json:"timing"`
}

// GroundTruth is the expected answer for a scenario.
type GroundTruth struct {
	ExpectedAnswer     string `json:"expected_answer"`
	EvaluationCriteria string `json:"evaluation_criteria"`
}

// JobState is the dataset job lifecycle status reported by the backend.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// SubmitResponse is returned by a dataset upload.
type SubmitResponse struct {
	JobID     string   `json:"job_id"`
	Status    JobState `json:"status"`
	TotalRows int      `json:"total_rows"`
	Message   string   `json:"message"`
}

// JobStatus is the polled dataset job state.
type JobStatus struct {
	JobID         string   `json:"job_id" validate:"required"`
	Status        JobState `json:"status" validate:"oneof=queued processing completed failed"`
	Progress      float64  `json:"progress" validate:"gte=0,lte=100"`
	TotalRows     int      `json:"total_rows" validate:"gte=0"`
	ProcessedRows int      `json:"processed_rows" validate:"gte=0"`
	CreatedAt     string   `json:"created_at"`
	CompletedAt   string   `json:"completed_at,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
}

var statusValidator = validator.New()

// Validate rejects payloads with an unknown status or out-of-range progress.
func (s JobStatus) Validate() error {
	if err := statusValidator.Struct(s); err != nil {
		return fmt.Errorf("invalid job status: %w", err)
	}
	return nil
}

// CostBreakdown splits a row's cost into line items.
type CostBreakdown struct {
	InputCost       float64 `json:"input_cost"`
	OutputCost      float64 `json:"output_cost"`
	RouterSurcharge float64 `json:"router_surcharge"`
}

// RowOutcome is one model's result for one dataset row.
type RowOutcome struct {
	ModelType        string         `json:"model_type"`
	Output           string         `json:"output"`
	LatencyMs        float64        `json:"latency_ms"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	Cost             *float64       `json:"cost"`
	Accuracy         *float64       `json:"accuracy,omitempty"`
	PricingWarning   string         `json:"pricing_warning,omitempty"`
	CostBreakdown    *CostBreakdown `json:"cost_breakdown,omitempty"`
}

// RowResult pairs both models' outcomes for one prompt.
type RowResult struct {
	RowIndex                 int        `json:"row_index"`
	Prompt                   string     `json:"prompt"`
	Router                   RowOutcome `json:"router"`
	Benchmark                RowOutcome `json:"benchmark"`
	AccuracyEvaluationTimeMs *float64   `json:"accuracy_evaluation_time_ms,omitempty"`
}

// ResultsSummary is the server-computed summary of a dataset job.
type ResultsSummary struct {
	TotalRows                 int      `json:"total_rows"`
	AvgRouterLatencyMs        float64  `json:"avg_router_latency_ms"`
	AvgBenchmarkLatencyMs     float64  `json:"avg_benchmark_latency_ms"`
	TotalRouterCost           float64  `json:"total_router_cost"`
	TotalBenchmarkCost        float64  `json:"total_benchmark_cost"`
	CostSavingsPercent        float64  `json:"cost_savings_percent"`
	LatencyImprovementPercent float64  `json:"latency_improvement_percent"`
	AvgRouterAccuracy         *float64 `json:"avg_router_accuracy,omitempty"`
	AvgBenchmarkAccuracy      *float64 `json:"avg_benchmark_accuracy,omitempty"`
}

// DatasetEvaluationResults is the terminal payload of a completed job.
type DatasetEvaluationResults struct {
	JobID       string         `json:"job_id"`
	Status      string         `json:"status"`
	CompletedAt string         `json:"completed_at"`
	Summary     ResultsSummary `json:"summary"`
	Results     []RowResult    `json:"results"`
}
