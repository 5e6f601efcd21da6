// Package job implements the application workflow state machine: the fixed set
// of stages one job application moves through and the legal transitions between
// them.
package job

// State represents a stage in the application workflow.
type State string

// Workflow states. A job starts in StateNew and terminates in StateClosed.
const (
	StateNew       State = "new"
	StateAnalyzing State = "analyzing"
	StateTailoring State = "tailoring"
	StateCompiling State = "compiling"
	StateReady     State = "ready"
	StateApplying  State = "applying"
	StateApplied   State = "applied"
	StateClosed    State = "closed"
	StateError     State = "error"
)

func (s State) String() string {
	return string(s)
}

// IsValid reports whether s is a known workflow state.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateAnalyzing, StateTailoring, StateCompiling,
		StateReady, StateApplying, StateApplied, StateClosed, StateError:
		return true
	default:
		return false
	}
}

// Event represents a workflow trigger that may cause a state transition.
type Event string

// Workflow events.
const (
	EventJDReceived        Event = "jd_received"
	EventAnalysisComplete  Event = "analysis_complete"
	EventTailoringComplete Event = "tailoring_complete"
	EventCompileComplete   Event = "compile_complete"
	EventUserApproved      Event = "user_approved"
	EventUserRejected      Event = "user_rejected"
	EventSubmitComplete    Event = "submit_complete"
	EventOutcomeRecorded   Event = "outcome_recorded"
	EventRetry             Event = "retry"
	EventAbort             Event = "abort"
)

func (e Event) String() string {
	return string(e)
}

// transitions is the happy-path transition table. Abort and error handling are
// layered on top in Machine.Transition: every non-terminal state accepts
// EventAbort, and EventRetry from StateError returns to the state that failed.
//
//nolint:gochecknoglobals // Fixed transition table, never mutated after init
var transitions = map[State]map[Event]State{
	StateNew: {
		EventJDReceived: StateAnalyzing,
	},
	StateAnalyzing: {
		EventAnalysisComplete: StateTailoring,
	},
	StateTailoring: {
		EventTailoringComplete: StateCompiling,
	},
	StateCompiling: {
		EventCompileComplete: StateReady,
	},
	StateReady: {
		EventUserApproved: StateApplying,
		EventUserRejected: StateTailoring,
	},
	StateApplying: {
		EventSubmitComplete: StateApplied,
	},
	StateApplied: {
		EventOutcomeRecorded: StateClosed,
	},
}
