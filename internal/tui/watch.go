// Package tui hosts the interactive job-watch program.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/notify"
	"github.com/mwiater/routerbench/internal/poller"
)

// statusMsg carries an accepted job status.
type statusMsg api.JobStatus

// pollErrMsg carries a failed status query. Polling continues.
type pollErrMsg struct{ error }

// doneMsg is sent once the poller handle has stopped.
type doneMsg poller.Outcome

// modeMsg reports an offline mode change made elsewhere.
type modeMsg bool

// tickMsg refreshes the elapsed-time display.
type tickMsg time.Time

// WatchModel is the Bubble Tea model for a running dataset job.
type WatchModel struct {
	jobID     string
	status    api.JobStatus
	mode      backendMode
	spinner   spinner.Model
	progress  progress.Model
	lastErr   error
	errCount  int
	done      bool
	quitting  bool
	outcome   poller.Outcome
	cancel    func()
	pollNow   func() bool
	startTime time.Time
	now       func() time.Time
	width     int
}

// NewWatchModel creates the model for the job described by sub.
func NewWatchModel(sub api.SubmitResponse, offline bool) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &WatchModel{
		jobID: sub.JobID,
		status: api.JobStatus{
			JobID:     sub.JobID,
			Status:    api.JobQueued,
			TotalRows: sub.TotalRows,
		},
		mode:      deriveMode(offline),
		spinner:   s,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel:    func() {},
		pollNow:   func() bool { return false },
		startTime: time.Now(),
		now:       time.Now,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner and the elapsed-time ticker.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update handles poller messages and key presses.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case "r":
			m.pollNow()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 20; w > 10 {
			m.progress.Width = min(w, 60)
		}
		return m, nil

	case statusMsg:
		m.status = api.JobStatus(msg)
		m.lastErr = nil
		return m, nil

	case pollErrMsg:
		m.lastErr = msg.error
		m.errCount++
		return m, nil

	case modeMsg:
		m.mode = deriveMode(bool(msg))
		return m, nil

	case doneMsg:
		m.done = true
		m.outcome = poller.Outcome(msg)
		if m.outcome.Status.JobID != "" {
			m.status = m.outcome.Status
		}
		return m, tea.Quit

	case tickMsg:
		if m.done || m.quitting {
			return m, nil
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the badges, progress bar and the latest status.
func (m *WatchModel) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, renderModeBadge(m.mode), renderJobBadge(m.jobID, m.status.Status)))
	b.WriteString("\n\n")

	percent := m.status.Progress / 100
	if m.status.Status == api.JobCompleted {
		percent = 1
	}
	b.WriteString("  " + m.progress.ViewAs(percent) + "\n")

	elapsed := m.now().Sub(m.startTime).Seconds()
	switch {
	case m.done:
		b.WriteString("  " + m.finalLine() + "\n")
	case m.quitting:
		b.WriteString("  Stopped watching. The job keeps running on the backend.\n")
	default:
		b.WriteString(fmt.Sprintf("  %s Processed %d of %d prompts... %.1fs\n", m.spinner.View(), m.status.ProcessedRows, m.status.TotalRows, elapsed))
	}

	if m.lastErr != nil && !m.done {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
		b.WriteString(errStyle.Render(fmt.Sprintf("  status check failed (%d so far): %v", m.errCount, m.lastErr)) + "\n")
	}
	if !m.done && !m.quitting {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("  (r to refresh now, q to stop watching)") + "\n")
	}
	return b.String()
}

func (m *WatchModel) finalLine() string {
	switch m.outcome.State {
	case poller.Completed:
		return notify.EvaluationComplete(m.status.TotalRows).String()
	case poller.Failed:
		return notify.EvaluationFailed(m.outcome.FailureMessage).String()
	default:
		if m.outcome.Err != nil {
			return fmt.Sprintf("Stopped: %v", m.outcome.Err)
		}
		return "Stopped."
	}
}

// Outcome returns how the watched handle ended. It is valid once Done reports true.
func (m *WatchModel) Outcome() poller.Outcome {
	return m.outcome
}

// Done reports whether the poller finished while the program was running.
func (m *WatchModel) Done() bool {
	return m.done
}

// WatchOptions configures Watch.
type WatchOptions struct {
	Offline bool
	// ModeChanges delivers offline mode changes made by other processes.
	ModeChanges <-chan bool
	// Callbacks are invoked alongside the program's own handling.
	Callbacks poller.Callbacks
	Input     io.Reader
	Output    io.Writer
}

// Watch polls the job under a Bubble Tea program until it ends or the user
// quits, and returns the handle's outcome. Quitting cancels the handle.
func Watch(ctx context.Context, p *poller.Poller, sub api.SubmitResponse, opts WatchOptions) (poller.Outcome, error) {
	m := NewWatchModel(sub, opts.Offline)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	progOpts = append(progOpts, tea.WithOutput(out))
	prog := tea.NewProgram(m, progOpts...)

	extra := opts.Callbacks
	h := p.Start(ctx, sub, poller.Callbacks{
		OnStatus: func(st api.JobStatus) {
			prog.Send(statusMsg(st))
			if extra.OnStatus != nil {
				extra.OnStatus(st)
			}
		},
		OnCompleted: extra.OnCompleted,
		OnFailed:    extra.OnFailed,
		OnError: func(err error) {
			prog.Send(pollErrMsg{err})
			if extra.OnError != nil {
				extra.OnError(err)
			}
		},
	})
	m.cancel = h.Cancel
	m.pollNow = h.PollNow

	go func() {
		prog.Send(doneMsg(h.Wait()))
	}()
	if opts.ModeChanges != nil {
		go func() {
			for {
				select {
				case <-h.Done():
					return
				case offline, ok := <-opts.ModeChanges:
					if !ok {
						return
					}
					prog.Send(modeMsg(offline))
				}
			}
		}()
	}

	_, err := prog.Run()
	h.Cancel()
	outcome := h.Wait()
	if err != nil && ctx.Err() == nil && !m.quitting {
		return outcome, fmt.Errorf("watch program: %w", err)
	}
	return outcome, nil
}
