package tui

import (
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🎬 reelsmith"))
	b.WriteString("\n\n")

	b.WriteString(m.getStateText())
	b.WriteString("\n\n")

	if m.Status.Project != "" {
		b.WriteString(InfoStyle.Render("📁 " + m.Status.Project))
		b.WriteString("\n\n")
	}

	if logs := m.Status.Logs; len(logs) > 0 {
		if len(logs) > maxVisibleLogs {
			logs = logs[len(logs)-maxVisibleLogs:]
		}
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, entry := range logs {
			b.WriteString(InfoStyle.Render("   " + entry.Timestamp.Format("15:04:05") + "  " + entry.Message))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.Status.LastRun != nil {
		b.WriteString(BoxStyle.Render(m.formatLastRun()))
		b.WriteString("\n\n")
	}

	if m.Notice != "" {
		b.WriteString(StatusStyle.Render(m.Notice))
		b.WriteString("\n")
	}

	if m.running() {
		b.WriteString(InfoStyle.Render(TextFooterWatch))
	} else {
		b.WriteString(InfoStyle.Render(TextFooterIdle))
	}
	return b.String()
}
