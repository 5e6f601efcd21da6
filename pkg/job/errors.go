package job

import "errors"

// Sentinel errors for state machine operations.
var (
	// ErrInvalidTransition indicates the (state, event) pair is not in the
	// transition table. The machine state is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrUnknownState indicates a serialized snapshot referenced a state this
	// build does not know about.
	ErrUnknownState = errors.New("unknown state")
)
