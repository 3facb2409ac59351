package tui

import (
	"reelsmith/types"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent = lipgloss.Color("#E8A33D")
	colorActive = lipgloss.Color("#5FB3D9")
	colorDone   = lipgloss.Color("#04B575")
	colorFailed = lipgloss.Color("#E5484D")
	colorMuted  = lipgloss.Color("#6C6C6C")
	colorPaper  = lipgloss.Color("#F5F1E8")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginTop(1)

	StatusStyle = lipgloss.NewStyle().Foreground(colorActive)
	ErrorStyle  = lipgloss.NewStyle().Foreground(colorFailed)
	InfoStyle   = lipgloss.NewStyle().Foreground(colorMuted)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 2)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPaper).
			Background(colorAccent).
			Padding(0, 1)

	doneStyle = lipgloss.NewStyle().Bold(true).Foreground(colorDone)
)

// StateStyle colors a state line: accent when idle, blue while running
func StateStyle(s types.State) lipgloss.Style {
	switch s {
	case types.StateIdle:
		return HighlightStyle
	case types.StateComplete:
		return doneStyle
	case types.StateFailed:
		return ErrorStyle
	default:
		return StatusStyle
	}
}
