package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// RequestError reports a failed backend call: either a transport failure
// (Err set) or a non-2xx response (StatusCode set).
type RequestError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Status     string
	Detail     string
	Err        error

	// preferDetail makes Error report the server detail (or fallback) instead of the status.
	preferDetail bool
	fallback     string
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.preferDetail {
		if e.Detail != "" {
			return e.Detail
		}
		if e.fallback != "" {
			return e.fallback
		}
	}
	if e.Status != "" {
		return fmt.Sprintf("%s: HTTP error! status: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: HTTP error! status: %d", e.Op, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// parseDetail extracts the server-supplied error detail from a JSON body.
// FastAPI validation errors carry a list of {msg} objects instead of a string.
func parseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return ""
	}
	if s, ok := parsed.Path("detail").Data().(string); ok {
		return strings.TrimSpace(s)
	}
	var msgs []string
	for _, item := range parsed.Path("detail").Children() {
		if s, ok := item.Path("msg").Data().(string); ok {
			msgs = append(msgs, s)
		}
	}
	if len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	if s, ok := parsed.Path("error").Data().(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Backend-side failure classes. Implementations wrap these so transports can
// map them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrNotReady     = errors.New("is not completed yet")
	ErrInvalidInput = errors.New("invalid input")
)

type invalidInput struct{ err error }

func (e invalidInput) Error() string        { return e.err.Error() }
func (e invalidInput) Unwrap() error        { return e.err }
func (e invalidInput) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput marks err as a rejected request while keeping its message.
func InvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return invalidInput{err: err}
}
