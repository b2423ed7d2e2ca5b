package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) AuthToken() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 5*time.Second)
}

func TestRouteFillsTimingAndAuth(t *testing.T) {
	var gotAuth, gotPrompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathRoute || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req PromptRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Prompt
		_, _ = io.WriteString(w, `{"model_type":"gpt-5-nano","output":"ok","prompt_tokens":3,"completion_tokens":4,"total_tokens":7,"server_processing_ms":0}`)
	})

	var recorded []string
	client = client.WithTokenSource(staticToken("abc")).WithRecorder(func(op string, rt, net float64) {
		recorded = append(recorded, op)
	})

	resp, err := client.Route(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotPrompt != "hello" {
		t.Fatalf("expected prompt body, got %q", gotPrompt)
	}
	if resp.ResponseTimeMs == nil || resp.NetworkMs == nil {
		t.Fatalf("expected client timing fields, got %+v", resp)
	}
	if *resp.NetworkMs != *resp.ResponseTimeMs {
		t.Fatalf("with zero server time network should equal response time: %+v", resp)
	}
	if len(recorded) != 1 || recorded[0] != "route" {
		t.Fatalf("unexpected recorder calls: %v", recorded)
	}
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Fatalf("unexpected Authorization header %q", h)
		}
		_, _ = io.WriteString(w, `{"model_type":"gpt-5","output":"x"}`)
	})
	if _, err := client.WithTokenSource(staticToken("")).Benchmark(context.Background(), "p"); err != nil {
		t.Fatalf("Benchmark error: %v", err)
	}
}

func TestRouteComparisonSharesClock(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"router":{"model_type":"a","server_processing_ms":1},"benchmark":{"model_type":"b","server_processing_ms":2}}`)
	})
	resp, err := client.RouteComparison(context.Background(), "p")
	if err != nil {
		t.Fatalf("RouteComparison error: %v", err)
	}
	if *resp.Router.ResponseTimeMs != *resp.Benchmark.ResponseTimeMs {
		t.Fatalf("expected a shared response time, got %v and %v", *resp.Router.ResponseTimeMs, *resp.Benchmark.ResponseTimeMs)
	}
}

func TestAccuracyComparisonAddsClientTotal(t *testing.T) {
	var body AccuracyRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"router":{"model_type":"a","accuracy_evaluation":{"score":80,"reasoning":"r","model_evaluated":"a"}},"benchmark":{"model_type":"b"},"timing":{"total_ms":0}}`)
	})
	resp, err := client.AccuracyComparison(context.Background(), "p", "  truth ")
	if err != nil {
		t.Fatalf("AccuracyComparison error: %v", err)
	}
	if body.GroundTruth != "truth" {
		t.Fatalf("expected trimmed ground truth, got %q", body.GroundTruth)
	}
	if resp.Timing.ClientTotalMs == nil {
		t.Fatal("expected client_total_ms")
	}
	if resp.Router.AccuracyEvaluation == nil || *resp.Router.AccuracyEvaluation.Score != 80 {
		t.Fatalf("unexpected router evaluation: %+v", resp.Router.AccuracyEvaluation)
	}
	if resp.Benchmark.AccuracyEvaluation != nil {
		t.Fatalf("expected no benchmark evaluation, got %+v", resp.Benchmark.AccuracyEvaluation)
	}
}

func TestSubmitDatasetMultipartAndDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		data, _ := io.ReadAll(file)
		if header.Filename == "bad.csv" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"Maximum 12 prompts allowed"}`)
			return
		}
		if !strings.HasPrefix(string(data), "prompt") {
			t.Fatalf("unexpected upload %q", data)
		}
		_, _ = io.WriteString(w, `{"job_id":"j1","status":"queued","total_rows":2,"message":"ok"}`)
	})

	resp, err := client.SubmitDataset(context.Background(), "ok.csv", strings.NewReader("prompt\na\nb\n"))
	if err != nil {
		t.Fatalf("SubmitDataset error: %v", err)
	}
	if resp.JobID != "j1" || resp.Status != JobQueued || resp.TotalRows != 2 {
		t.Fatalf("unexpected submit response: %+v", resp)
	}

	_, err = client.SubmitDataset(context.Background(), "bad.csv", strings.NewReader("prompt\na\n"))
	if err == nil || err.Error() != "Maximum 12 prompts allowed" {
		t.Fatalf("expected server detail, got %v", err)
	}
	if StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", StatusCode(err))
	}
}

func TestErrorMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, PathResults):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasPrefix(r.URL.Path, PathScenarios):
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"unknown department"}`)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})

	_, err := client.JobResults(context.Background(), "j1")
	if err == nil || err.Error() != "failed to get evaluation results" {
		t.Fatalf("expected results fallback message, got %v", err)
	}

	_, err = client.Scenarios(context.Background(), "Nope")
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if re.Detail != "unknown department" {
		t.Fatalf("expected parsed detail, got %q", re.Detail)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status text for scenarios error, got %v", err)
	}
}

func TestTransportErrorUnwraps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second)
	err := client.DeleteJob(context.Background(), "j1")
	var re *RequestError
	if !errors.As(err, &re) || re.Err == nil {
		t.Fatalf("expected transport RequestError, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("expected no status code, got %d", StatusCode(err))
	}
}

func TestJobStatusValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/bad") {
			_, _ = io.WriteString(w, `{"job_id":"bad","status":"exploded","progress":10}`)
			return
		}
		_, _ = io.WriteString(w, `{"job_id":"j1","status":"processing","progress":50,"total_rows":4,"processed_rows":2}`)
	})

	status, err := client.JobStatus(context.Background(), "j1")
	if err != nil {
		t.Fatalf("JobStatus error: %v", err)
	}
	if status.Status != JobProcessing || status.ProcessedRows != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if _, err := client.JobStatus(context.Background(), "bad"); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestPricingIsSchemaChecked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"models":{"gpt-5":{"input_per_1m":"cheap"}}}`)
	})
	if _, err := client.Pricing(context.Background()); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestParseDetailVariants(t *testing.T) {
	if got := parseDetail([]byte(`{"detail":[{"msg":"field required"},{"msg":"bad"}]}`)); got != "field required; bad" {
		t.Fatalf("list detail: %q", got)
	}
	if got := parseDetail([]byte(`{"error":"boom"}`)); got != "boom" {
		t.Fatalf("error key: %q", got)
	}
	if got := parseDetail([]byte(`<html>`)); got != "" {
		t.Fatalf("non-json: %q", got)
	}
}

func TestNetworkMsClamps(t *testing.T) {
	if got := NetworkMs(100, 40); got != 60 {
		t.Fatalf("NetworkMs: %v", got)
	}
	if got := NetworkMs(100, 140); got != 0 {
		t.Fatalf("expected clamp to zero, got %v", got)
	}
}

type fakeBackend struct {
	Backend
	routeErr  error
	benchWait chan struct{}
}

func (f *fakeBackend) Route(ctx context.Context, prompt string) (ModelResponse, error) {
	if f.routeErr != nil {
		return ModelResponse{}, f.routeErr
	}
	return ModelResponse{ModelType: "router"}, nil
}

func (f *fakeBackend) Benchmark(ctx context.Context, prompt string) (ModelResponse, error) {
	<-f.benchWait
	if err := ctx.Err(); err != nil {
		return ModelResponse{}, err
	}
	return ModelResponse{ModelType: "bench"}, nil
}

func TestCompareIndependentSides(t *testing.T) {
	fb := &fakeBackend{routeErr: errors.New("router down"), benchWait: make(chan struct{})}
	var (
		mu    sync.Mutex
		order []string
	)
	res := Compare(context.Background(), fb, "p", CompareCallbacks{
		OnRouter: func(_ ModelResponse, err error) {
			mu.Lock()
			order = append(order, "router")
			mu.Unlock()
			close(fb.benchWait)
		},
		OnBenchmark: func(_ ModelResponse, err error) {
			mu.Lock()
			order = append(order, "benchmark")
			mu.Unlock()
		},
	})
	if res.RouterErr == nil || res.BenchmarkErr != nil {
		t.Fatalf("expected only router error, got %+v", res)
	}
	if res.Benchmark.ModelType != "bench" {
		t.Fatalf("benchmark side should complete, got %+v", res.Benchmark)
	}
	if len(order) != 2 || order[0] != "router" {
		t.Fatalf("expected router callback first, got %v", order)
	}
	if res.Err() == nil {
		t.Fatal("expected joined error")
	}
}
