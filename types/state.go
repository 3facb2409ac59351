package types

import "time"

// State represents the composition driver state machine
type State string

const (
	StatePreparing      State = "preparing"
	StateSelectingClips State = "selecting_clips"
	StatePlanning       State = "planning"
	StateSynchronizing  State = "synchronizing"
	StateLayingOutTitle State = "laying_out_title"
	StateRendering      State = "rendering"
	StateComplete       State = "complete"
	StateFailed         State = "failed"

	// StateIdle is only reported by the run service when nothing is running
	StateIdle State = "idle"
)

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// RunSummary describes a finished run
type RunSummary struct {
	RunID          string   `json:"run_id"`
	Project        string   `json:"project"`
	OutputPath     string   `json:"output_path,omitempty"`
	SubtitlePath   string   `json:"subtitle_path,omitempty"`
	TargetDuration float64  `json:"target_duration"`
	Revised        bool     `json:"revised"`
	Clips          int      `json:"clips"`
	Captions       int      `json:"captions"`
	Published      []string `json:"published,omitempty"`
}

// StatusResponse is the JSON response for GET /api/status
type StatusResponse struct {
	State     State       `json:"state"`
	RunID     string      `json:"run_id,omitempty"`
	Project   string      `json:"project,omitempty"`
	Logs      []LogEntry  `json:"logs"`
	LastRun   *RunSummary `json:"last_run,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}
