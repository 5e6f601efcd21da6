package agent

import (
	"sync"
)

// Status describes what the runtime is doing right now.
type Status string

const (
	StatusIdle               Status = "idle"
	StatusThinking           Status = "thinking"
	StatusCallingTools       Status = "calling_tools"
	StatusWaitingForApproval Status = "waiting_for_approval"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// State is the runtime's transient status record. It has a single writer
// (the run loop) but may be read from other goroutines, so access is
// synchronized. Reset to idle after every run.
type State struct {
	mu               sync.RWMutex
	status           Status
	currentIteration int
	currentSession   string
	lastError        string
}

func newState() *State {
	return &State{status: StatusIdle}
}

// Status returns the current runtime status.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// CurrentIteration returns the iteration the loop is on, 0 when idle.
func (s *State) CurrentIteration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIteration
}

// CurrentSession returns the session the runtime is serving, if any.
func (s *State) CurrentSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSession
}

// LastError returns the most recent run-aborting error message.
func (s *State) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *State) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *State) setIteration(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentIteration = n
}

func (s *State) startRun(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusThinking
	s.currentIteration = 0
	s.currentSession = sessionID
	s.lastError = ""
}

func (s *State) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// reset returns the state to idle, keeping lastError for inspection.
func (s *State) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusIdle
	s.currentIteration = 0
	s.currentSession = ""
}
