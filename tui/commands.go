package tui

import (
	"time"

	"reelsmith/types"

	tea "github.com/charmbracelet/bubbletea"
)

const pollInterval = 500 * time.Millisecond

func pollStatus(client *StatusClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

func submitRender(client *StatusClient, req types.RenderRequest) tea.Cmd {
	return func() tea.Msg {
		id, err := client.Render(req)
		return RenderSubmittedMsg{RunID: id, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
