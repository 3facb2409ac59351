package tui

import (
	"time"

	"reelsmith/types"
)

// StatusUpdateMsg is sent when a status poll returns
type StatusUpdateMsg struct {
	Status *types.StatusResponse
	Err    error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// RenderSubmittedMsg is sent after the user triggered a render
type RenderSubmittedMsg struct {
	RunID string
	Err   error
}
