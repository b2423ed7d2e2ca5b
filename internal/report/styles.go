// Package report renders routerbench results as terminal tables and badges.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/routerbench/internal/aggregate"
)

var (
	headerStyle  = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	jsonStyle    = lipgloss.NewStyle().Background(lipgloss.Color("255")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	offlineStyle = lipgloss.NewStyle().Background(lipgloss.Color("229")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	liveStyle    = lipgloss.NewStyle().Background(lipgloss.Color("40")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// bandColors maps score bands to badge backgrounds.
var bandColors = map[string]string{
	"Excellent": "28",
	"Good":      "40",
	"Adequate":  "220",
	"Poor":      "208",
	"Failing":   "160",
	"N/A":       "244",
}

// ModeLabel is the text of the backend mode badge.
func ModeLabel(offline bool) string {
	if offline {
		return "Offline Mode"
	}
	return "Live"
}

// ModeBadge renders the Offline/Live indicator.
func ModeBadge(offline bool) string {
	if offline {
		return offlineStyle.Render(ModeLabel(true))
	}
	return liveStyle.Render(ModeLabel(false))
}

// JSONBadge renders the JSON mode indicator.
func JSONBadge(enabled bool) string {
	label := "JSON Mode: off"
	if enabled {
		label = "JSON Mode: on"
	}
	return jsonStyle.Render(label)
}

// StatusLine joins the header badges shown above interactive output.
func StatusLine(backendURL string, offline, jsonMode bool) string {
	target := backendURL
	if offline {
		target = "replay"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("Backend:"),
		headerStyle.Render(target),
		" ",
		ModeBadge(offline),
		" ",
		JSONBadge(jsonMode),
	)
}

// ScoreBadge renders a score with its band, e.g. "92 Excellent".
func ScoreBadge(score *float64) string {
	band := aggregate.ScoreBand(score)
	text := band
	if score != nil {
		text = fmt.Sprintf("%.0f %s", *score, band)
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bandColors[band])).
		Foreground(lipgloss.Color("0")).
		Padding(0, 1).
		Render(text)
}

// LatencyBar draws ms as a bar scaled against maxMs.
func LatencyBar(ms, maxMs float64, width int, color string) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if maxMs > 0 && ms > 0 {
		filled = int(ms / maxMs * float64(width))
		if filled < 1 {
			filled = 1
		}
		if filled > width {
			filled = width
		}
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled))
	return bar + mutedStyle.Render(strings.Repeat("░", width-filled))
}

// Title renders a section heading.
func Title(text string) string {
	return titleStyle.Render(text)
}

func formatMs(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}

func formatCost(v float64) string {
	return fmt.Sprintf("$%.6f", v)
}

func formatOptionalCost(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatCost(*v)
}

func formatOptionalScore(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *v)
}

// savingsText colors a savings percentage: green when positive, red when negative.
func savingsText(p aggregate.Percent) string {
	text := p.String() + "%"
	switch {
	case !p.Defined:
		return mutedStyle.Render(text)
	case p.Value > 0:
		return goodStyle.Render(text)
	case p.Value < 0:
		return badStyle.Render(text)
	default:
		return text
	}
}
