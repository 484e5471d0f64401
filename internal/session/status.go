package session

import "sync"

// Status is the station's single current-operation snapshot.
type Status struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// StatusCell holds the process-wide operation status. The running
// session is the only writer; any number of pollers read snapshots.
// Writes overwrite in place, last-writer-wins, no history: a slow
// poller may skip intermediate phases, which is fine because the
// station runs one workflow at a time.
type StatusCell struct {
	mu      sync.RWMutex
	current Status
}

// NewStatusCell creates a cell in the idle state.
func NewStatusCell() *StatusCell {
	return &StatusCell{current: Status{Phase: PhaseIdle, Message: "System ready"}}
}

// Set overwrites the current status.
func (c *StatusCell) Set(phase Phase, message string) {
	c.mu.Lock()
	c.current = Status{Phase: phase, Message: message}
	c.mu.Unlock()
}

// Get returns the current snapshot without blocking on the session.
func (c *StatusCell) Get() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
