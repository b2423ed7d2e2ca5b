package poller

import (
	"errors"
	"fmt"

	"github.com/mwiater/routerbench/internal/api"
)

// State is the client-side view of a dataset job.
type State string

const (
	Idle       State = "idle"
	Queued     State = "queued"
	Processing State = "processing"
	Completed  State = "completed"
	Failed     State = "failed"
)

// ErrInvalidTransition is returned when a job would move backwards or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid job state transition")

// Terminal reports whether the job has finished.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Next validates a transition. queued may skip straight to a terminal state
// when a poll misses processing; a repeated queued or processing report is
// accepted as a progress update.
func (s State) Next(to State) (State, error) {
	ok := false
	switch s {
	case Idle:
		ok = to == Queued
	case Queued:
		ok = to == Queued || to == Processing || to == Completed || to == Failed
	case Processing:
		ok = to == Processing || to == Completed || to == Failed
	}
	if !ok {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return to, nil
}

// FromJob maps a backend status onto a State.
func FromJob(s api.JobState) State {
	switch s {
	case api.JobQueued:
		return Queued
	case api.JobProcessing:
		return Processing
	case api.JobCompleted:
		return Completed
	case api.JobFailed:
		return Failed
	default:
		return State(s)
	}
}
