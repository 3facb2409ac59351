// Package tui is a terminal dashboard for a running reelsmith server.
package tui

import (
	"fmt"
	"strings"

	"reelsmith/types"

	tea "github.com/charmbracelet/bubbletea"
)

// Model is a thin client: all state is polled from the server
type Model struct {
	Client *StatusClient
	// Request is submitted on 'r'; nil disables the key
	Request *types.RenderRequest

	Status    types.StatusResponse
	Connected bool
	Err       error
	Notice    string
}

func NewModel(serverURL string, req *types.RenderRequest) Model {
	return Model{
		Client:  NewStatusClient(serverURL),
		Request: req,
		Status:  types.StatusResponse{State: types.StateIdle},
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.Client), tickCmd())
}

func (m Model) running() bool {
	return m.Status.RunID != "" && !m.Status.State.Terminal() && m.Status.State != types.StateIdle
}

func (m Model) getStateText() string {
	if !m.Connected {
		return ErrorStyle.Render(TextNotConnected)
	}

	style := StateStyle(m.Status.State)
	switch m.Status.State {
	case types.StateIdle:
		return style.Render("👋 Idle")
	case types.StatePreparing:
		return style.Render("⏳ Scanning media and captions...")
	case types.StateSelectingClips:
		return style.Render("🎞  Selecting clips...")
	case types.StatePlanning:
		return style.Render("📐 Planning timeline...")
	case types.StateSynchronizing:
		return style.Render("🎙  Synchronizing narration and captions...")
	case types.StateLayingOutTitle:
		return style.Render("🔤 Laying out title...")
	case types.StateRendering:
		return style.Render("🎬 Rendering...")
	case types.StateComplete:
		return style.Render("✅ COMPLETE")
	case types.StateFailed:
		msg := m.Status.Error
		if len(msg) > maxRenderedErrLen {
			msg = msg[:maxRenderedErrLen] + "..."
		}
		return style.Render(fmt.Sprintf("❌ %s: %s", m.Status.ErrorKind, msg))
	default:
		return string(m.Status.State)
	}
}

func (m Model) formatLastRun() string {
	r := m.Status.LastRun
	var b strings.Builder
	b.WriteString(HighlightStyle.Render("Last Run"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Output: %s\n", r.OutputPath)
	if r.SubtitlePath != "" {
		fmt.Fprintf(&b, "Subtitles: %s\n", r.SubtitlePath)
	}
	revised := ""
	if r.Revised {
		revised = " (extended to fit narration)"
	}
	fmt.Fprintf(&b, "Duration: %.2fs%s\n", r.TargetDuration, revised)
	fmt.Fprintf(&b, "Clips: %d | Captions: %d\n", r.Clips, r.Captions)
	for _, p := range r.Published {
		fmt.Fprintf(&b, "Published: %s\n", p)
	}
	return b.String()
}
