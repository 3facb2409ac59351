package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		return m.handleStatus(msg)
	case RenderSubmittedMsg:
		return m.handleSubmitted(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		if m.Request == nil {
			m.Notice = TextNoRequest
			return m, nil
		}
		if !m.running() {
			m.Notice = "submitting render..."
			return m, submitRender(m.Client, *m.Request)
		}
	}
	return m, nil
}

func (m Model) handleStatus(msg StatusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m, nil
	}
	m.Connected = true
	m.Err = nil
	m.Status = *msg.Status
	return m, nil
}

func (m Model) handleSubmitted(msg RenderSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Notice = "render not started: " + msg.Err.Error()
		return m, nil
	}
	m.Notice = fmt.Sprintf("render %s started", msg.RunID)
	return m, pollStatus(m.Client)
}
