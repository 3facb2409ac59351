package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"reelsmith/types"
)

// Manager holds the status of the latest run with thread-safe access. It
// implements compose.Observer.
type Manager struct {
	mu sync.RWMutex

	currentState types.State
	runID        string
	project      string

	// Logs (ring buffer)
	logs    []types.LogEntry
	maxLogs int

	lastRun   *types.RunSummary
	errKind   types.ErrorKind
	lastErr   error
	updatedAt time.Time

	subs map[chan types.StatusResponse]struct{}
}

// NewManager creates a new status manager keeping the last maxLogs entries
func NewManager(maxLogs int) *Manager {
	if maxLogs <= 0 {
		maxLogs = 50
	}
	return &Manager{
		currentState: types.StateIdle,
		logs:         make([]types.LogEntry, 0),
		maxLogs:      maxLogs,
		updatedAt:    time.Now(),
		subs:         make(map[chan types.StatusResponse]struct{}),
	}
}

// Begin records that a run was accepted
func (m *Manager) Begin(runID, project string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = runID
	m.project = project
	m.currentState = types.StateIdle
	m.errKind = ""
	m.lastErr = nil
	m.appendLog(fmt.Sprintf("run %s accepted for %s", runID, project))
	m.notify()
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
	m.notify()
}

func (m *Manager) StateChanged(runID string, s types.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = runID
	m.currentState = s
	m.appendLog("state: " + string(s))
	m.notify()
}

func (m *Manager) Logf(runID string, format string, args ...any) {
	m.AddLog(fmt.Sprintf(format, args...))
}

func (m *Manager) Failed(runID string, kind types.ErrorKind, state types.State, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = runID
	m.currentState = types.StateFailed
	m.errKind = kind
	m.lastErr = err
	m.appendLog(fmt.Sprintf("Error: %s in %s: %v", kind, state, err))
	m.notify()
}

// Finish stores the summary of a completed run
func (m *Manager) Finish(summary *types.RunSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = summary
	m.appendLog(fmt.Sprintf("run %s complete: %s", summary.RunID, summary.OutputPath))
	m.notify()
}

// GetState gets the current state (thread-safe)
func (m *Manager) GetState() types.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// Busy reports whether a run is between acceptance and a terminal state
func (m *Manager) Busy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID != "" && !m.currentState.Terminal()
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (m *Manager) GetStatus() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

// Subscribe returns a channel receiving a snapshot after every change.
// Slow readers only see the latest snapshot.
func (m *Manager) Subscribe() (<-chan types.StatusResponse, func()) {
	ch := make(chan types.StatusResponse, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	ch <- m.snapshot()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// must hold lock
func (m *Manager) snapshot() types.StatusResponse {
	resp := types.StatusResponse{
		State:     m.currentState,
		RunID:     m.runID,
		Project:   m.project,
		Logs:      append([]types.LogEntry{}, m.logs...), // Copy slice
		LastRun:   m.lastRun,
		UpdatedAt: m.updatedAt,
	}
	if m.lastErr != nil {
		resp.ErrorKind = string(m.errKind)
		resp.Error = m.lastErr.Error()
	}
	return resp
}

// must hold lock
func (m *Manager) appendLog(message string) {
	m.updatedAt = time.Now()
	m.logs = append(m.logs, types.LogEntry{Timestamp: m.updatedAt, Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

// must hold write lock
func (m *Manager) notify() {
	if len(m.subs) == 0 {
		return
	}
	snap := m.snapshot()
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
