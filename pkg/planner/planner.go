// Package planner drives a job application through the workflow state machine,
// mapping each state to the action that fulfils it and applying the retry and
// abort policy when an action fails.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"jobpilot/pkg/config"
	"jobpilot/pkg/job"
	"jobpilot/pkg/logx"
)

// Action names the work bound to a workflow state.
type Action string

// Workflow actions. Review and complete are no-ops: the planner waits on the
// caller (human review, outcome recording) instead of executing anything.
const (
	ActionAnalyzeJD      Action = "analyze_jd"
	ActionTailorResume   Action = "tailor_resume"
	ActionCompilePDF     Action = "compile_pdf"
	ActionPortalAutofill Action = "portal_autofill"
	ActionReview         Action = "review"
	ActionComplete       Action = "complete"
	ActionNone           Action = ""
)

// Executable reports whether the action requires delegation to an executor.
func (a Action) Executable() bool {
	switch a {
	case ActionAnalyzeJD, ActionTailorResume, ActionCompilePDF, ActionPortalAutofill:
		return true
	default:
		return false
	}
}

// actionForState binds each resulting state to the action that fulfils it.
//
//nolint:gochecknoglobals // Fixed lookup table, never mutated after init
var actionForState = map[job.State]Action{
	job.StateAnalyzing: ActionAnalyzeJD,
	job.StateTailoring: ActionTailorResume,
	job.StateCompiling: ActionCompilePDF,
	job.StateReady:     ActionReview,
	job.StateApplying:  ActionPortalAutofill,
	job.StateClosed:    ActionComplete,
}

// nextEventForState maps a resulting state to the event the caller should fire
// once that state's work is done, so callers need not hard-code the workflow
// shape. States that wait on an external decision have no derived event.
//
//nolint:gochecknoglobals // Fixed lookup table, never mutated after init
var nextEventForState = map[job.State]job.Event{
	job.StateAnalyzing: job.EventAnalysisComplete,
	job.StateTailoring: job.EventTailoringComplete,
	job.StateCompiling: job.EventCompileComplete,
	job.StateApplying:  job.EventSubmitComplete,
	job.StateApplied:   job.EventOutcomeRecorded,
}

// ActionExecutor performs a workflow action and returns the data it produced,
// which the planner merges into the job context. The agent runtime's tool
// layer is the production implementation.
type ActionExecutor interface {
	ExecuteAction(ctx context.Context, action Action, jobCtx job.Context) (map[string]any, error)
}

// ActionExecutorFunc adapts a function to the ActionExecutor interface.
type ActionExecutorFunc func(ctx context.Context, action Action, jobCtx job.Context) (map[string]any, error)

func (f ActionExecutorFunc) ExecuteAction(ctx context.Context, action Action, jobCtx job.Context) (map[string]any, error) {
	return f(ctx, action, jobCtx)
}

// Config holds the planner's failure handling policy.
type Config struct {
	MaxRetries      int      `json:"max_retries"`
	EnableAutoRetry bool     `json:"enable_auto_retry"`
	RejectResetKeys []string `json:"reject_reset_keys,omitempty"`
}

// DefaultRejectResetKeys are the job data entries blanked when a reviewer
// rejects the compiled document. Requirements survive so tailoring restarts
// from the analysis, not from scratch.
func DefaultRejectResetKeys() []string {
	return []string{job.KeyTailoredResume, job.KeyPDFPath}
}

// ConfigFrom builds a planner Config from the engine configuration, filling in
// the default reject reset keys.
func ConfigFrom(p config.Planner) Config {
	return Config{
		MaxRetries:      p.MaxRetries,
		EnableAutoRetry: p.EnableAutoRetry,
		RejectResetKeys: DefaultRejectResetKeys(),
	}
}

// StepResult reports the outcome of one planner step.
type StepResult struct {
	Success   bool           `json:"success"`
	State     job.State      `json:"state"`
	NextEvent job.Event      `json:"next_event,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Planner wraps a job state machine and an action executor. One planner owns
// one job; steps are serialized, never concurrent.
type Planner struct {
	mu sync.Mutex

	machine  *job.Machine
	executor ActionExecutor
	cfg      Config

	// retries counts consecutive failures per state, reset when that state's
	// action finally succeeds.
	retries map[job.State]int

	logger *logx.Logger
}

// New creates a planner for a fresh job.
func New(executor ActionExecutor, cfg Config) *Planner {
	return newWithMachine(job.NewMachine(), executor, cfg)
}

func newWithMachine(machine *job.Machine, executor ActionExecutor, cfg Config) *Planner {
	return &Planner{
		machine:  machine,
		executor: executor,
		cfg:      cfg,
		retries:  make(map[job.State]int),
		logger:   logx.NewLogger("planner:" + machine.JobID()),
	}
}

// JobID returns the identifier of the job this planner drives.
func (p *Planner) JobID() string {
	return p.machine.JobID()
}

// State returns the current workflow state.
func (p *Planner) State() job.State {
	return p.machine.CurrentState()
}

// Snapshot returns a copy of the job context.
func (p *Planner) Snapshot() job.Context {
	return p.machine.Snapshot()
}

// NextEvent returns the event expected to fire next for the current state, or
// the empty event when the workflow is waiting on an external decision. Used
// to resume a deserialized planner without hard-coding the workflow shape.
func (p *Planner) NextEvent() job.Event {
	return nextEventForState[p.machine.CurrentState()]
}

// Start begins the workflow with the raw job description text.
func (p *Planner) Start(ctx context.Context, jdText string) StepResult {
	return p.ExecuteStep(ctx, job.EventJDReceived, map[string]any{job.KeyJDText: jdText})
}

// Approve records the reviewer's approval and submits the application.
func (p *Planner) Approve(ctx context.Context, dataPatch map[string]any) StepResult {
	return p.ExecuteStep(ctx, job.EventUserApproved, dataPatch)
}

// Reject sends the job back to tailoring, blanking the data entries the
// rejected artifacts occupied so the rerun overwrites them.
func (p *Planner) Reject(ctx context.Context) StepResult {
	patch := make(map[string]any, len(p.cfg.RejectResetKeys))
	for _, key := range p.cfg.RejectResetKeys {
		patch[key] = ""
	}
	return p.ExecuteStep(ctx, job.EventUserRejected, patch)
}

// Retry re-enters the state that failed and runs its action again.
func (p *Planner) Retry(ctx context.Context) StepResult {
	return p.ExecuteStep(ctx, job.EventRetry, nil)
}

// Abort closes the job from whatever state it is in.
func (p *Planner) Abort(ctx context.Context) StepResult {
	return p.ExecuteStep(ctx, job.EventAbort, nil)
}

// ExecuteStep fires the event, runs the resulting state's action, and reports
// the event the caller should fire next. An event that is illegal in the
// current state yields a failure result and leaves the machine untouched.
func (p *Planner) ExecuteStep(ctx context.Context, event job.Event, dataPatch map[string]any) StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.machine.CanTransition(event) {
		current := p.machine.CurrentState()
		p.logger.Warn("rejected event %s in state %s", event, current)
		return StepResult{
			Success: false,
			State:   current,
			Error:   fmt.Sprintf("invalid event %q in state %q", event, current),
		}
	}

	state, err := p.machine.Transition(event, dataPatch)
	if err != nil {
		// CanTransition passed, so this is a planner bug rather than a
		// caller error.
		return StepResult{Success: false, State: state, Error: err.Error()}
	}

	action := actionForState[state]
	if !action.Executable() {
		return StepResult{
			Success:   true,
			State:     state,
			NextEvent: nextEventForState[state],
			Data:      p.machine.Snapshot().Data,
		}
	}

	p.logger.Info("🚀 executing %s for state %s", action, state)
	produced, err := p.executor.ExecuteAction(ctx, action, p.machine.Snapshot())
	if err != nil {
		return p.handleFailure(state, err)
	}

	for k, v := range produced {
		p.machine.SetData(k, v)
	}
	delete(p.retries, state)

	return StepResult{
		Success:   true,
		State:     state,
		NextEvent: nextEventForState[state],
		Data:      p.machine.Snapshot().Data,
	}
}

// handleFailure moves the machine to the error state and decides between retry
// and abort. Caller must hold the mutex.
func (p *Planner) handleFailure(state job.State, actionErr error) StepResult {
	p.machine.Fail(actionErr.Error())

	count := p.retries[state]
	if p.cfg.EnableAutoRetry && count < p.cfg.MaxRetries {
		count++
		p.retries[state] = count
		p.logger.Warn("⏸️ %s failed, retry %d/%d: %v", state, count, p.cfg.MaxRetries, actionErr)
		return StepResult{
			Success:   false,
			State:     p.machine.CurrentState(),
			NextEvent: job.EventRetry,
			Error:     fmt.Sprintf("%s (Retry %d/%d)", actionErr.Error(), count, p.cfg.MaxRetries),
		}
	}

	p.logger.Error("🛑 %s failed with retries exhausted: %v", state, actionErr)
	return StepResult{
		Success:   false,
		State:     p.machine.CurrentState(),
		NextEvent: job.EventAbort,
		Error:     "Max retries exceeded: " + actionErr.Error(),
	}
}

// plannerState is the serialized wire form of a Planner.
type plannerState struct {
	Machine json.RawMessage `json:"machine"`
	Retries map[string]int  `json:"retry_counts,omitempty"`
	Config  Config          `json:"config"`
}

// Serialize returns a JSON snapshot covering the state machine, the per-state
// retry counters, and the configuration.
func (p *Planner) Serialize() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	machineRaw, err := p.machine.Serialize()
	if err != nil {
		return nil, err
	}

	retries := make(map[string]int, len(p.retries))
	for state, count := range p.retries {
		retries[state.String()] = count
	}

	raw, err := json.Marshal(plannerState{
		Machine: machineRaw,
		Retries: retries,
		Config:  p.cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize planner for job %s: %w", p.machine.JobID(), err)
	}
	return raw, nil
}

// Deserialize reconstructs a planner from a Serialize snapshot. The restored
// planner behaves identically to one that never paused, retry counters
// included.
func Deserialize(raw []byte, executor ActionExecutor) (*Planner, error) {
	var ps plannerState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, fmt.Errorf("failed to restore planner: %w", err)
	}

	machine, err := job.Restore(ps.Machine)
	if err != nil {
		return nil, err
	}

	p := newWithMachine(machine, executor, ps.Config)
	for state, count := range ps.Retries {
		p.retries[job.State(state)] = count
	}
	return p, nil
}
