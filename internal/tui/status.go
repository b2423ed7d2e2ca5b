// internal/tui/status.go
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/report"
)

// backendMode is which backend the watched job runs against.
type backendMode string

const (
	modeLive    backendMode = "live"
	modeOffline backendMode = "offline"
)

func deriveMode(offline bool) backendMode {
	if offline {
		return modeOffline
	}
	return modeLive
}

func renderModeBadge(mode backendMode) string {
	return report.ModeBadge(mode == modeOffline)
}

// renderJobBadge shows the job id and its current server state.
func renderJobBadge(jobID string, state api.JobState) string {
	style := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1).MarginLeft(1)
	return style.Render(fmt.Sprintf("Job %s: %s", jobID, state))
}
