package notify

import "github.com/mwiater/routerbench/internal/logging"

const (
	defaultSuccess = "Operation completed successfully."
	defaultFailure = "Operation failed. Please try again."
)

// Options configures Guard. Empty messages fall back to generic text.
type Options[T any] struct {
	SuccessTitle   string
	SuccessMessage string
	FailureTitle   string
	FailureMessage string
	// ShowSuccess controls whether a success notice is emitted at all.
	ShowSuccess bool
	// Describe, when set, builds the success message from the result.
	Describe func(T) string
}

// Guard runs fn and reports its outcome through n. On failure it returns the
// zero value and false instead of the error, which is logged.
func Guard[T any](n Notifier, opts Options[T], fn func() (T, error)) (T, bool) {
	if n == nil {
		n = Discard{}
	}
	result, err := fn()
	if err != nil {
		logging.LogWarn("guarded operation failed: %v", err)
		msg := opts.FailureMessage
		if msg == "" {
			msg = err.Error()
		}
		if msg == "" {
			msg = defaultFailure
		}
		n.Notify(Notice{Kind: Failure, Title: opts.FailureTitle, Message: msg})
		var zero T
		return zero, false
	}
	if opts.ShowSuccess {
		msg := opts.SuccessMessage
		if opts.Describe != nil {
			msg = opts.Describe(result)
		}
		if msg == "" {
			msg = defaultSuccess
		}
		n.Notify(Notice{Kind: Success, Title: opts.SuccessTitle, Message: msg})
	}
	return result, true
}
