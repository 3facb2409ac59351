package cmd

import (
	"fmt"

	"reelsmith/tui"
	"reelsmith/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	watchServer  string
	watchProject string
	watchLength  float64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a reelsmith server in the terminal",
	Long: `watch polls GET /api/status of a running "reelsmith serve" and shows the
current state, recent log lines and the last run. With --project and
--length, pressing r submits a render.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req *types.RenderRequest
		if watchProject != "" {
			if watchLength <= 0 {
				return types.Errorf(types.ErrInvalidDuration, "--length must be positive")
			}
			req = &types.RenderRequest{Project: watchProject, Length: watchLength}
		}

		p := tea.NewProgram(tui.NewModel(watchServer, req))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		return nil
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchServer, "server", "http://localhost:8080", "reelsmith server URL")
	f.StringVar(&watchProject, "project", "", "project submitted when r is pressed")
	f.Float64Var(&watchLength, "length", 0, "length of renders submitted with r")
}
