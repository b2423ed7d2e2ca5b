// Package notify shows user-facing success and failure notices.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/mwiater/routerbench/internal/logging"
)

// Kind classifies a notice.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Failure Kind = "error"
)

// Notice is one message shown to the user.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (n Notice) String() string {
	if n.Title == "" {
		return n.Message
	}
	return n.Title + ": " + n.Message
}

// Notifier delivers notices.
type Notifier interface {
	Notify(Notice)
}

var (
	successText = color.New(color.FgGreen, color.Bold).SprintFunc()
	failureText = color.New(color.FgRed, color.Bold).SprintFunc()
	infoText    = color.New(color.FgCyan).SprintFunc()
)

// Console prints notices as colored lines.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a Console writing to out, or stderr when out is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out}
}

// Notify prints n and records it in the log.
func (c *Console) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	paint := infoText
	switch n.Kind {
	case Success:
		paint = successText
	case Failure:
		paint = failureText
	}
	if n.Title != "" {
		fmt.Fprintf(c.out, "%s %s\n", paint(n.Title+":"), n.Message)
	} else {
		fmt.Fprintln(c.out, paint(n.Message))
	}
	logging.LogEvent("notice kind=%s %s", n.Kind, n.String())
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Notice) {}
