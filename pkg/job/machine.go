package job

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobpilot/pkg/logx"
)

// ErrorEntry records a failure observed while the job was in a given state.
type ErrorEntry struct {
	State     State     `json:"state"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Context carries the accumulated outputs of each completed workflow stage.
// Data entries are only ever added or overwritten, never removed.
type Context struct {
	JobID  string         `json:"job_id"`
	Data   map[string]any `json:"data"`
	Errors []ErrorEntry   `json:"errors"`
}

// Well-known data keys populated as stages complete.
const (
	KeyJDText         = "jd_text"
	KeyRequirements   = "requirements"
	KeyTailoredResume = "tailored_resume"
	KeyPDFPath        = "pdf_path"
	KeyOutcome        = "outcome"
)

// Machine is the authoritative workflow state machine for one job application.
// Invalid (state, event) pairs are reported as failures, never panics.
type Machine struct {
	mu sync.Mutex

	state State
	ctx   Context

	// failedState remembers which state an internal failure occurred in so
	// that EventRetry can re-enter it.
	failedState State

	logger *logx.Logger
}

// NewMachine creates a machine in StateNew with a fresh job ID.
func NewMachine() *Machine {
	return NewMachineWithID(uuid.New().String())
}

// NewMachineWithID creates a machine in StateNew for the given job ID.
func NewMachineWithID(jobID string) *Machine {
	return &Machine{
		state: StateNew,
		ctx: Context{
			JobID: jobID,
			Data:  make(map[string]any),
		},
		logger: logx.NewLogger("job:" + jobID),
	}
}

// JobID returns the job identifier.
func (m *Machine) JobID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx.JobID
}

// CurrentState returns the current workflow state.
func (m *Machine) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CanTransition reports whether the event is legal in the current state.
func (m *Machine) CanTransition(event Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.resolve(event)
	return ok
}

// resolve computes the target state for event from the current state.
// Caller must hold the mutex.
func (m *Machine) resolve(event Event) (State, bool) {
	// Abort is legal from every state. Terminal jobs stay terminal: aborting
	// a closed job is a no-op, not a failure.
	if event == EventAbort {
		return StateClosed, true
	}

	if m.state == StateError {
		if event == EventRetry && m.failedState != "" {
			return m.failedState, true
		}
		return "", false
	}

	next, ok := transitions[m.state][event]
	return next, ok
}

// Transition applies the event. On success it merges dataPatch into the
// context data and returns the new state. On an invalid (state, event) pair it
// records an error entry and returns the unchanged state with ErrInvalidTransition.
func (m *Machine) Transition(event Event, dataPatch map[string]any) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.resolve(event)
	if !ok {
		err := fmt.Errorf("%w: event %q in state %q", ErrInvalidTransition, event, m.state)
		m.appendError(err.Error())
		return m.state, err
	}

	prev := m.state
	m.state = next
	if next != StateError {
		m.failedState = ""
	}

	for k, v := range dataPatch {
		m.ctx.Data[k] = v
	}

	m.logger.Info("🔄 %s --%s--> %s", prev, event, next)
	return next, nil
}

// Fail moves the machine into StateError, remembering the failing state so a
// later EventRetry can re-enter it. The message is appended to the error log.
func (m *Machine) Fail(message string) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateClosed {
		// Terminal jobs stay terminal.
		m.appendError(message)
		return m.state
	}

	if m.state != StateError {
		m.failedState = m.state
	}
	m.appendError(message)
	m.logger.Warn("job failed in state %s: %s", m.failedState, message)
	m.state = StateError
	return m.state
}

// RecordError appends an error entry without changing state.
func (m *Machine) RecordError(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendError(message)
}

func (m *Machine) appendError(message string) {
	m.ctx.Errors = append(m.ctx.Errors, ErrorEntry{
		State:     m.state,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// IsTerminal reports whether the machine has reached its terminal state.
func (m *Machine) IsTerminal() bool {
	return m.CurrentState() == StateClosed
}

// IsError reports whether the machine is in the error state.
func (m *Machine) IsError() bool {
	return m.CurrentState() == StateError
}

// GetData returns the stored value for key, if present.
func (m *Machine) GetData(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ctx.Data[key]
	return v, ok
}

// SetData adds or overwrites a context data entry.
func (m *Machine) SetData(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx.Data[key] = value
}

// DeleteData is intentionally absent: context data entries are append/overwrite only.

// Snapshot returns a deep copy of the job context.
func (m *Machine) Snapshot() Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Context {
	data := make(map[string]any, len(m.ctx.Data))
	for k, v := range m.ctx.Data {
		data[k] = v
	}
	errs := make([]ErrorEntry, len(m.ctx.Errors))
	copy(errs, m.ctx.Errors)
	return Context{JobID: m.ctx.JobID, Data: data, Errors: errs}
}

// machineState is the serialized wire form of a Machine.
type machineState struct {
	JobID       string         `json:"job_id"`
	State       State          `json:"state"`
	FailedState State          `json:"failed_state,omitempty"`
	Data        map[string]any `json:"data"`
	Errors      []ErrorEntry   `json:"errors"`
}

// Serialize returns a JSON snapshot that round-trips losslessly through Restore.
func (m *Machine) Serialize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshotLocked()
	raw, err := json.Marshal(machineState{
		JobID:       snap.JobID,
		State:       m.state,
		FailedState: m.failedState,
		Data:        snap.Data,
		Errors:      snap.Errors,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize job %s: %w", snap.JobID, err)
	}
	return raw, nil
}

// Restore reconstructs a machine from a Serialize snapshot.
func Restore(raw []byte) (*Machine, error) {
	var ms machineState
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, fmt.Errorf("failed to restore job state: %w", err)
	}
	if !ms.State.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, ms.State)
	}

	m := NewMachineWithID(ms.JobID)
	m.state = ms.State
	m.failedState = ms.FailedState
	if ms.Data != nil {
		m.ctx.Data = ms.Data
	}
	m.ctx.Errors = ms.Errors
	return m, nil
}
