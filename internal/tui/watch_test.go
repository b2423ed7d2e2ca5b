// internal/tui/watch_test.go
package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/poller"
)

func newTestModel() *WatchModel {
	m := NewWatchModel(api.SubmitResponse{JobID: "job-1", Status: api.JobQueued, TotalRows: 4}, false)
	start := time.Unix(100, 0)
	m.startTime = start
	m.now = func() time.Time { return start.Add(1500 * time.Millisecond) }
	return m
}

// TestWatchModelStatusAndCompletion drives the model through a job lifecycle.
func TestWatchModelStatusAndCompletion(t *testing.T) {
	m := newTestModel()

	if view := m.View(); !strings.Contains(view, "Live") || !strings.Contains(view, "Processed 0 of 4 prompts") {
		t.Fatalf("unexpected initial view:\n%s", view)
	}

	next, _ := m.Update(statusMsg(api.JobStatus{JobID: "job-1", Status: api.JobProcessing, Progress: 50, TotalRows: 4, ProcessedRows: 2}))
	m = next.(*WatchModel)
	if view := m.View(); !strings.Contains(view, "Processed 2 of 4 prompts") || !strings.Contains(view, "processing") {
		t.Fatalf("unexpected processing view:\n%s", view)
	}

	results := &api.DatasetEvaluationResults{JobID: "job-1"}
	next, cmd := m.Update(doneMsg(poller.Outcome{
		State:   poller.Completed,
		Status:  api.JobStatus{JobID: "job-1", Status: api.JobCompleted, Progress: 100, TotalRows: 4, ProcessedRows: 4},
		Results: results,
	}))
	m = next.(*WatchModel)
	if cmd == nil {
		t.Fatal("expected a quit command when the job ends")
	}
	if !m.Done() || m.Outcome().Results != results {
		t.Fatal("expected outcome to be kept")
	}
	if view := m.View(); !strings.Contains(view, "Evaluation Complete!: Processed 4 prompts successfully.") {
		t.Fatalf("unexpected final view:\n%s", view)
	}
}

func TestWatchModelFailureMessage(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(doneMsg(poller.Outcome{State: poller.Failed, FailureMessage: "grader offline"}))
	m = next.(*WatchModel)
	if view := m.View(); !strings.Contains(view, "Evaluation Failed: grader offline") {
		t.Fatalf("unexpected failure view:\n%s", view)
	}
}

func TestWatchModelPollErrorsKeepWatching(t *testing.T) {
	m := newTestModel()
	next, cmd := m.Update(pollErrMsg{errors.New("connection refused")})
	m = next.(*WatchModel)
	if cmd != nil {
		t.Fatal("expected no command for a poll error")
	}
	if view := m.View(); !strings.Contains(view, "status check failed (1 so far): connection refused") {
		t.Fatalf("unexpected view:\n%s", view)
	}

	next, _ = m.Update(statusMsg(api.JobStatus{JobID: "job-1", Status: api.JobQueued, TotalRows: 4}))
	m = next.(*WatchModel)
	if strings.Contains(m.View(), "status check failed") {
		t.Fatal("expected a fresh status to clear the error line")
	}
}

func TestWatchModelKeys(t *testing.T) {
	m := newTestModel()
	cancelled, polled := false, false
	m.cancel = func() { cancelled = true }
	m.pollNow = func() bool { polled = true; return true }

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if !polled {
		t.Fatal("expected r to request an immediate poll")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !cancelled {
		t.Fatal("expected ctrl+c to cancel the handle and quit")
	}
	if !strings.Contains(m.View(), "Stopped watching") {
		t.Fatalf("unexpected view after quit:\n%s", m.View())
	}
}

func TestWatchModelModeChange(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(modeMsg(true))
	m = next.(*WatchModel)
	if !strings.Contains(m.View(), "Offline Mode") {
		t.Fatalf("expected offline badge:\n%s", m.View())
	}
}

func TestWatchModelWindowResize(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 70, Height: 20})
	m = next.(*WatchModel)
	if m.width != 70 || m.progress.Width != 50 {
		t.Fatalf("unexpected sizes: width=%d progress=%d", m.width, m.progress.Width)
	}
}
