package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachineWithID("J1")

	steps := []struct {
		event Event
		want  State
	}{
		{EventJDReceived, StateAnalyzing},
		{EventAnalysisComplete, StateTailoring},
		{EventTailoringComplete, StateCompiling},
		{EventCompileComplete, StateReady},
		{EventUserApproved, StateApplying},
		{EventSubmitComplete, StateApplied},
		{EventOutcomeRecorded, StateClosed},
	}

	for _, step := range steps {
		require.True(t, m.CanTransition(step.event), "expected %s legal in %s", step.event, m.CurrentState())
		next, err := m.Transition(step.event, nil)
		require.NoError(t, err)
		assert.Equal(t, step.want, next)
	}

	assert.True(t, m.IsTerminal())
	assert.False(t, m.IsError())
	assert.Empty(t, m.Snapshot().Errors)
}

func TestMachine_TransitionMergesDataPatch(t *testing.T) {
	m := NewMachineWithID("J1")

	_, err := m.Transition(EventJDReceived, map[string]any{KeyJDText: "Senior Go Engineer"})
	require.NoError(t, err)

	next, err := m.Transition(EventAnalysisComplete, map[string]any{KeyRequirements: []string{"go", "sql"}})
	require.NoError(t, err)
	assert.Equal(t, StateTailoring, next)

	jd, ok := m.GetData(KeyJDText)
	require.True(t, ok)
	assert.Equal(t, "Senior Go Engineer", jd)

	_, ok = m.GetData(KeyRequirements)
	assert.True(t, ok)
}

func TestMachine_InvalidPairIsNoOp(t *testing.T) {
	// Totality: every pair absent from the table reports failure without
	// changing state and without panicking.
	events := []Event{
		EventJDReceived, EventAnalysisComplete, EventTailoringComplete,
		EventCompileComplete, EventUserApproved, EventUserRejected,
		EventSubmitComplete, EventOutcomeRecorded, EventRetry, EventAbort,
	}
	states := []State{
		StateNew, StateAnalyzing, StateTailoring, StateCompiling,
		StateReady, StateApplying, StateApplied, StateClosed, StateError,
	}

	for _, state := range states {
		for _, event := range events {
			m := NewMachineWithID("J-total")
			m.state = state
			if state == StateError {
				m.failedState = StateCompiling
			}

			legal := m.CanTransition(event)
			next, err := m.Transition(event, nil)
			if legal {
				assert.NoError(t, err, "state=%s event=%s", state, event)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition, "state=%s event=%s", state, event)
			assert.Equal(t, state, next, "state must be unchanged on invalid pair")
			assert.NotEmpty(t, m.Snapshot().Errors)
		}
	}
}

func TestMachine_AbortFromAnyState(t *testing.T) {
	for _, state := range []State{StateNew, StateAnalyzing, StateTailoring, StateCompiling, StateReady, StateApplying, StateApplied, StateError} {
		m := NewMachineWithID("J-abort")
		m.state = state

		next, err := m.Transition(EventAbort, nil)
		require.NoError(t, err, "abort from %s", state)
		assert.Equal(t, StateClosed, next)
	}

	// Terminal jobs stay terminal: aborting a closed job is a silent no-op.
	m := NewMachineWithID("J-abort")
	m.state = StateClosed
	next, err := m.Transition(EventAbort, nil)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, next)
	assert.Empty(t, m.Snapshot().Errors)
}

func TestMachine_RejectionLoopsBackToTailoring(t *testing.T) {
	m := NewMachineWithID("J1")
	m.state = StateReady

	next, err := m.Transition(EventUserRejected, nil)
	require.NoError(t, err)
	assert.Equal(t, StateTailoring, next)
}

func TestMachine_FailAndRetryReentersFailedState(t *testing.T) {
	m := NewMachineWithID("J1")
	_, err := m.Transition(EventJDReceived, nil)
	require.NoError(t, err)
	_, err = m.Transition(EventAnalysisComplete, nil)
	require.NoError(t, err)

	got := m.Fail("tailor_resume: model overloaded")
	assert.Equal(t, StateError, got)
	assert.True(t, m.IsError())

	next, err := m.Transition(EventRetry, nil)
	require.NoError(t, err)
	assert.Equal(t, StateTailoring, next, "retry must re-enter the state that failed")
	assert.False(t, m.IsError())

	errs := m.Snapshot().Errors
	require.Len(t, errs, 1)
	assert.Equal(t, StateTailoring, errs[0].State)
}

func TestMachine_ErrorAbortCloses(t *testing.T) {
	m := NewMachineWithID("J1")
	_, err := m.Transition(EventJDReceived, nil)
	require.NoError(t, err)
	m.Fail("boom")

	next, err := m.Transition(EventAbort, nil)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, next)
	assert.True(t, m.IsTerminal())
}

func TestMachine_RecordErrorKeepsState(t *testing.T) {
	m := NewMachineWithID("J1")
	m.RecordError("transient warning")

	assert.Equal(t, StateNew, m.CurrentState())
	errs := m.Snapshot().Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "transient warning", errs[0].Message)
}

func TestMachine_SerializeRoundTrip(t *testing.T) {
	m := NewMachineWithID("J-serial")
	_, err := m.Transition(EventJDReceived, map[string]any{KeyJDText: "JD body"})
	require.NoError(t, err)
	m.Fail("compile timeout")

	raw, err := m.Serialize()
	require.NoError(t, err)

	restored, err := Restore(raw)
	require.NoError(t, err)

	assert.Equal(t, "J-serial", restored.JobID())
	assert.Equal(t, StateError, restored.CurrentState())

	jd, ok := restored.GetData(KeyJDText)
	require.True(t, ok)
	assert.Equal(t, "JD body", jd)

	require.Len(t, restored.Snapshot().Errors, 1)

	// Restored machine behaves identically: retry re-enters analyzing.
	next, err := restored.Transition(EventRetry, nil)
	require.NoError(t, err)
	assert.Equal(t, StateAnalyzing, next)
}

func TestRestore_RejectsUnknownState(t *testing.T) {
	_, err := Restore([]byte(`{"job_id":"x","state":"limbo","data":{}}`))
	assert.True(t, errors.Is(err, ErrUnknownState))
}

func TestRestore_RejectsGarbage(t *testing.T) {
	_, err := Restore([]byte(`{not json`))
	assert.Error(t, err)
}
