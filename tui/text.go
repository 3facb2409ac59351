package tui

const (
	TextFooterIdle    = "Press 'r' to render | Press 'q' to detach"
	TextFooterWatch   = "Press 'q' to detach (the run continues)"
	TextNotConnected  = "❌ Not connected to reelsmith"
	TextNoRequest     = "no render request configured; start watch with --project and --length"
	maxVisibleLogs    = 12
	maxRenderedErrLen = 300
)
