// Package mockserver serves any api.Backend over the routing demo's HTTP API.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/auth"
	"github.com/mwiater/routerbench/internal/logging"
)

// maxUploadBytes bounds a dataset upload.
const maxUploadBytes = 10 << 20

// AuthConfig enables bearer-token checks on /api routes.
type AuthConfig struct {
	Enabled bool
	AuthURL string
	AppURL  string
	AppName string
	// Checker validates expired tokens. Defaults to an HTTPChecker on AuthURL.
	Checker auth.Checker
}

// Server is an http.Handler exposing a Backend.
type Server struct {
	backend api.Backend
	auth    AuthConfig
	now     func() time.Time
	router  *mux.Router

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// Option configures a Server.
type Option func(*Server)

// WithAuth enables bearer-token checks.
func WithAuth(cfg AuthConfig) Option {
	return func(s *Server) {
		if cfg.Enabled && cfg.Checker == nil {
			cfg.Checker = auth.NewHTTPChecker(cfg.AuthURL)
		}
		s.auth = cfg
	}
}

// WithClock overrides the clock used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New builds the handler for backend.
func New(backend api.Backend, opts ...Option) *Server {
	s := &Server{
		backend:  backend,
		now:      time.Now,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routerbench_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routerbench_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "routerbench_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry.MustRegister(s.requests, s.duration, s.inFlight)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/info", s.handleAuthInfo).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(s.authMiddleware)
	apiRouter.HandleFunc("/scenarios/{department}", s.handleScenarios).Methods(http.MethodGet)
	apiRouter.HandleFunc("/pricing", s.handlePricing).Methods(http.MethodGet)
	apiRouter.HandleFunc("/route", s.handleRoute).Methods(http.MethodPost)
	apiRouter.HandleFunc("/benchmark", s.handleBenchmark).Methods(http.MethodPost)
	apiRouter.HandleFunc("/route-comparison", s.handleRouteComparison).Methods(http.MethodPost)
	apiRouter.HandleFunc("/accuracy-comparison", s.handleAccuracyComparison).Methods(http.MethodPost)
	apiRouter.HandleFunc("/ground-truth/{scenarioId}", s.handleGroundTruth).Methods(http.MethodGet)
	apiRouter.HandleFunc("/dataset-evaluation/submit", s.handleSubmit).Methods(http.MethodPost)
	apiRouter.HandleFunc("/dataset-evaluation/status/{jobId}", s.handleStatus).Methods(http.MethodGet)
	apiRouter.HandleFunc("/dataset-evaluation/results/{jobId}", s.handleResults).Methods(http.MethodGet)
	apiRouter.HandleFunc("/dataset-evaluation/job/{jobId}", s.handleDelete).Methods(http.MethodDelete)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.inFlight.Inc()
		defer s.inFlight.Dec()

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		logging.LogEvent("[HTTP] %s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		raw := ""
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		} else if q := r.URL.Query().Get("t"); q != "" {
			raw = q
		}
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		token, err := auth.DecodeToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token invalid")
			return
		}
		if token.Expired(s.now()) {
			if err := s.auth.Checker.Check(r.Context(), token.Token); err != nil {
				logging.LogWarn("[HTTP] rejected expired token for %s: %v", token.ID, err)
				writeError(w, http.StatusUnauthorized, "Token invalid")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAuthInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":  s.auth.Enabled,
		"auth_url": s.auth.AuthURL,
		"app_url":  s.auth.AppURL,
		"app_name": s.auth.AppName,
	})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.Scenarios(r.Context(), mux.Vars(r)["department"])
	respond(w, out, err)
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.Pricing(r.Context())
	respond(w, out, err)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req api.PromptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.backend.Route(r.Context(), req.Prompt)
	respond(w, out, err)
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	var req api.PromptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.backend.Benchmark(r.Context(), req.Prompt)
	respond(w, out, err)
}

func (s *Server) handleRouteComparison(w http.ResponseWriter, r *http.Request) {
	var req api.PromptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.backend.RouteComparison(r.Context(), req.Prompt)
	respond(w, out, err)
}

func (s *Server) handleAccuracyComparison(w http.ResponseWriter, r *http.Request) {
	var req api.AccuracyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.backend.AccuracyComparison(r.Context(), req.Prompt, req.GroundTruth)
	respond(w, out, err)
}

func (s *Server) handleGroundTruth(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.GroundTruth(r.Context(), mux.Vars(r)["scenarioId"])
	respond(w, out, err)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A CSV file is required in form field 'file'")
		return
	}
	defer file.Close()
	out, err := s.backend.SubmitDataset(r.Context(), header.Filename, file)
	respond(w, out, err)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.JobStatus(r.Context(), mux.Vars(r)["jobId"])
	respond(w, out, err)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.JobResults(r.Context(), mux.Vars(r)["jobId"])
	respond(w, out, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteJob(r.Context(), mux.Vars(r)["jobId"]); err != nil {
		respond(w, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err == nil {
		err = json.Unmarshal(body, out)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Request body must be JSON with a 'prompt' field")
		return false
	}
	return true
}

func respond(w http.ResponseWriter, out any, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrNotReady), errors.Is(err, api.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.LogWarn("[HTTP] encode response: %v", err)
	}
}
