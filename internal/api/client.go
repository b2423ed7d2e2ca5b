package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/routerbench/internal/logging"
	"github.com/mwiater/routerbench/internal/pricing"
)

// TokenSource supplies the bearer token attached to each request.
type TokenSource interface {
	AuthToken() string
}

// Recorder receives client timings per operation.
type Recorder func(op string, responseMs, networkMs float64)

// Client is an HTTP implementation of Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	recorder   Recorder
}

var _ Backend = (*Client)(nil)

// NewClient returns a client for baseURL. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithTokenSource returns a copy of the client that sends tokens from ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// WithRecorder returns a copy of the client that reports timings to rec.
func (c *Client) WithRecorder(rec Recorder) *Client {
	cp := *c
	cp.recorder = rec
	return &cp
}

// WithHTTPClient returns a copy of the client using hc for transport.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.httpClient = hc
	return &cp
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op           string
	method       string
	path         string
	body         io.Reader
	logBody      any
	contentType  string
	preferDetail bool
	fallback     string
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	endpoint := c.baseURL + r.path
	host := c.baseURL
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	reqErr := func(err error) error {
		return &RequestError{Op: r.op, Method: r.method, URL: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return nil, reqErr(err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.AuthToken()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	logging.LogRequest("out", host, r.method+" "+r.path, r.logBody)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, reqErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, reqErr(err)
	}
	logging.LogRequest("in", host, fmt.Sprintf("%s %s %d", r.method, r.path, resp.StatusCode), body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Op:           r.op,
			Method:       r.method,
			URL:          endpoint,
			StatusCode:   resp.StatusCode,
			Status:       resp.Status,
			Detail:       parseDetail(body),
			preferDetail: r.preferDetail,
			fallback:     r.fallback,
		}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(op, body, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(data),
		logBody:     data,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	return decode(op, body, out)
}

func decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) record(op string, responseMs, networkMs float64) {
	if c.recorder != nil {
		c.recorder(op, responseMs, networkMs)
	}
}

// Scenarios lists the canned prompts for a department.
func (c *Client) Scenarios(ctx context.Context, department string) ([]Scenario, error) {
	var out []Scenario
	ms, err := Measure(func() error {
		return c.getJSON(ctx, "scenarios", PathScenarios+url.PathEscape(department), &out)
	})
	if err != nil {
		return nil, err
	}
	c.record("scenarios", ms, ms)
	return out, nil
}

// Pricing fetches the model pricing table. The body is schema-checked before decoding.
func (c *Client) Pricing(ctx context.Context) (PricingData, error) {
	start := time.Now()
	body, err := c.do(ctx, request{op: "pricing", method: http.MethodGet, path: PathPricing})
	if err != nil {
		return PricingData{}, err
	}
	data, err := pricing.Decode(body)
	if err != nil {
		return PricingData{}, fmt.Errorf("pricing: %w", err)
	}
	ms := sinceMs(start)
	c.record("pricing", ms, ms)
	return data, nil
}

// Route invokes the router model.
func (c *Client) Route(ctx context.Context, prompt string) (ModelResponse, error) {
	return c.invoke(ctx, "route", PathRoute, prompt)
}

// Benchmark invokes the fixed benchmark model.
func (c *Client) Benchmark(ctx context.Context, prompt string) (ModelResponse, error) {
	return c.invoke(ctx, "benchmark", PathBenchmark, prompt)
}

func (c *Client) invoke(ctx context.Context, op, path, prompt string) (ModelResponse, error) {
	var out ModelResponse
	ms, err := Measure(func() error {
		return c.postJSON(ctx, op, path, PromptRequest{Prompt: prompt}, &out)
	})
	if err != nil {
		return ModelResponse{}, err
	}
	stamp(&out, ms)
	c.record(op, ms, *out.NetworkMs)
	return out, nil
}

// RouteComparison invokes both models in one server-paired request. Both
// sides share the single request's wall time.
func (c *Client) RouteComparison(ctx context.Context, prompt string) (ComparisonResponse, error) {
	var out ComparisonResponse
	ms, err := Measure(func() error {
		return c.postJSON(ctx, "route-comparison", PathRouteComparison, PromptRequest{Prompt: prompt}, &out)
	})
	if err != nil {
		return ComparisonResponse{}, err
	}
	stamp(&out.Router, ms)
	stamp(&out.Benchmark, ms)
	c.record("route-comparison", ms, *out.Router.NetworkMs)
	return out, nil
}

// AccuracyComparison invokes both models and grades them. groundTruth may be empty.
func (c *Client) AccuracyComparison(ctx context.Context, prompt, groundTruth string) (AccuracyComparisonResponse, error) {
	var out AccuracyComparisonResponse
	payload := AccuracyRequest{Prompt: prompt, GroundTruth: strings.TrimSpace(groundTruth)}
	ms, err := Measure(func() error {
		return c.postJSON(ctx, "accuracy-comparison", PathAccuracyComparison, payload, &out)
	})
	if err != nil {
		return AccuracyComparisonResponse{}, err
	}
	out.Timing.ClientTotalMs = &ms
	c.record("accuracy-comparison", ms, NetworkMs(ms, out.Timing.TotalMs))
	return out, nil
}

// GroundTruth fetches the expected answer for a scenario.
func (c *Client) GroundTruth(ctx context.Context, scenarioID string) (GroundTruth, error) {
	var out GroundTruth
	if err := c.getJSON(ctx, "ground-truth", PathGroundTruth+url.PathEscape(scenarioID), &out); err != nil {
		return GroundTruth{}, err
	}
	return out, nil
}

// SubmitDataset uploads a CSV file as multipart field "file".
func (c *Client) SubmitDataset(ctx context.Context, fileName string, file io.Reader) (SubmitResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("submit: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return SubmitResponse{}, fmt.Errorf("submit: read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return SubmitResponse{}, fmt.Errorf("submit: %w", err)
	}

	body, err := c.do(ctx, request{
		op:           "submit",
		method:       http.MethodPost,
		path:         PathSubmit,
		body:         &buf,
		logBody:      map[string]string{"file": fileName},
		contentType:  mw.FormDataContentType(),
		preferDetail: true,
		fallback:     "failed to submit dataset evaluation",
	})
	if err != nil {
		return SubmitResponse{}, err
	}
	var out SubmitResponse
	if err := decode("submit", body, &out); err != nil {
		return SubmitResponse{}, err
	}
	return out, nil
}

// JobStatus polls a dataset job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var out JobStatus
	if err := c.getJSON(ctx, "status", PathStatus+url.PathEscape(jobID), &out); err != nil {
		return JobStatus{}, err
	}
	if err := out.Validate(); err != nil {
		return JobStatus{}, fmt.Errorf("status: %w", err)
	}
	return out, nil
}

// JobResults fetches the results of a completed job.
func (c *Client) JobResults(ctx context.Context, jobID string) (DatasetEvaluationResults, error) {
	body, err := c.do(ctx, request{
		op:           "results",
		method:       http.MethodGet,
		path:         PathResults + url.PathEscape(jobID),
		preferDetail: true,
		fallback:     "failed to get evaluation results",
	})
	if err != nil {
		return DatasetEvaluationResults{}, err
	}
	var out DatasetEvaluationResults
	if err := decode("results", body, &out); err != nil {
		return DatasetEvaluationResults{}, err
	}
	return out, nil
}

// DeleteJob removes a job on the server.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	_, err := c.do(ctx, request{op: "delete", method: http.MethodDelete, path: PathJob + url.PathEscape(jobID)})
	return err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}
