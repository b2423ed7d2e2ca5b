// Package poller tracks a submitted dataset job until it completes or fails.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/logging"
	"github.com/mwiater/routerbench/internal/notify"
)

// DefaultInterval is the time between status queries.
const DefaultInterval = 3000 * time.Millisecond

// Source is the part of the backend a poller needs.
type Source interface {
	JobStatus(ctx context.Context, jobID string) (api.JobStatus, error)
	JobResults(ctx context.Context, jobID string) (api.DatasetEvaluationResults, error)
}

// Callbacks observe a job. All fields are optional and are called from the
// polling goroutine.
type Callbacks struct {
	OnStatus    func(api.JobStatus)
	OnCompleted func(api.DatasetEvaluationResults)
	OnFailed    func(message string)
	OnError     func(error)
}

// Outcome is how a handle ended. Err is set when the handle was cancelled
// or when the results fetch failed.
type Outcome struct {
	State          State
	Status         api.JobStatus
	Results        *api.DatasetEvaluationResults
	FailureMessage string
	Err            error
}

// Poller starts job handles.
type Poller struct {
	src      Source
	interval time.Duration
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// New returns a Poller reading from src.
func New(src Source, opts ...Option) *Poller {
	p := &Poller{src: src, interval: DefaultInterval}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the configured polling interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Handle is one running job watch.
type Handle struct {
	jobID  string
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu      sync.Mutex
	state   State
	status  api.JobStatus
	results *api.DatasetEvaluationResults
	outcome Outcome

	inFlight atomic.Bool
	refresh  chan struct{}
	done     chan struct{}
}

// Start begins polling the job described by sub. The handle stops when the
// job reaches a terminal state, Cancel is called or ctx ends.
func (p *Poller) Start(ctx context.Context, sub api.SubmitResponse, cb Callbacks) *Handle {
	hctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		jobID:   sub.JobID,
		ctx:     hctx,
		cancel:  cancel,
		state:   Queued,
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}),
		status: api.JobStatus{
			JobID:     sub.JobID,
			Status:    api.JobQueued,
			TotalRows: sub.TotalRows,
		},
	}
	logging.LogEvent("[POLL] watching job %s (%d rows) every %s", sub.JobID, sub.TotalRows, p.interval)
	go h.loop(p, cb)
	return h
}

// Run polls until the job ends or ctx is done and returns the outcome.
func (p *Poller) Run(ctx context.Context, sub api.SubmitResponse, cb Callbacks) Outcome {
	h := p.Start(ctx, sub, cb)
	defer h.Cancel()
	return h.Wait()
}

func (h *Handle) loop(p *Poller, cb Callbacks) {
	defer close(h.done)
	defer h.cancel()

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.finish(Outcome{Err: h.ctx.Err()})
			return
		case <-timer.C:
		case <-h.refresh:
		}

		if h.tick(p, cb) {
			return
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.interval)
	}
}

// tick runs one status query and reports whether the handle finished.
func (h *Handle) tick(p *Poller, cb Callbacks) bool {
	if !h.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer h.inFlight.Store(false)

	status, err := p.src.JobStatus(h.ctx, h.jobID)
	if h.ctx.Err() != nil {
		return false
	}
	if err != nil {
		h.report(cb, fmt.Errorf("poll job %s: %w", h.jobID, err))
		return false
	}

	h.mu.Lock()
	next, err := h.state.Next(FromJob(status.Status))
	if err == nil {
		h.state = next
		h.status = status
	}
	h.mu.Unlock()
	if err != nil {
		h.report(cb, err)
		return false
	}
	if cb.OnStatus != nil {
		cb.OnStatus(status)
	}

	switch next {
	case Completed:
		h.fetchResults(p, cb, status)
		return true
	case Failed:
		msg := status.ErrorMessage
		if msg == "" {
			msg = notify.EvaluationFailedDefault
		}
		logging.LogWarn("[POLL] job %s failed: %s", h.jobID, msg)
		if cb.OnFailed != nil {
			cb.OnFailed(msg)
		}
		h.finish(Outcome{State: Failed, Status: status, FailureMessage: msg})
		return true
	}
	return false
}

// fetchResults runs the single results request for a completed job.
func (h *Handle) fetchResults(p *Poller, cb Callbacks, status api.JobStatus) {
	results, err := p.src.JobResults(h.ctx, h.jobID)
	if ctxErr := h.ctx.Err(); ctxErr != nil {
		h.finish(Outcome{State: Completed, Status: status, Err: ctxErr})
		return
	}
	if err != nil {
		err = fmt.Errorf("fetch results for job %s: %w", h.jobID, err)
		h.report(cb, err)
		h.finish(Outcome{State: Completed, Status: status, Err: err})
		return
	}
	h.mu.Lock()
	h.results = &results
	h.mu.Unlock()
	logging.LogEvent("[POLL] job %s completed with %d results", h.jobID, len(results.Results))
	if cb.OnCompleted != nil {
		cb.OnCompleted(results)
	}
	h.finish(Outcome{State: Completed, Status: status, Results: &results})
}

func (h *Handle) report(cb Callbacks, err error) {
	logging.LogWarn("[POLL] %v", err)
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

func (h *Handle) finish(o Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o.State == "" {
		o.State = h.state
		o.Status = h.status
	}
	h.outcome = o
}

// Cancel stops polling. It is safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Done is closed when the handle stops.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle stops and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// PollNow asks for an immediate status query. It returns false when a query
// is already running or one is already pending.
func (h *Handle) PollNow() bool {
	if h.inFlight.Load() {
		return false
	}
	select {
	case h.refresh <- struct{}{}:
		return true
	default:
		return false
	}
}

// JobID returns the watched job.
func (h *Handle) JobID() string {
	return h.jobID
}

// State returns the current job state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Status returns the last accepted status report.
func (h *Handle) Status() api.JobStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Results returns the fetched results, or nil before completion.
func (h *Handle) Results() *api.DatasetEvaluationResults {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.results
}
