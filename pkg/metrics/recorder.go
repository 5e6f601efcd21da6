// Package metrics provides metrics recording for the agent execution engine.
package metrics

import (
	"time"
)

// Recorder defines the interface for recording engine metrics.
type Recorder interface {
	// ObserveLLMRequest records a completed model call.
	ObserveLLMRequest(model, sessionID string, promptTokens, completionTokens int, success bool, duration time.Duration)

	// ObserveToolExecution records a tool call outcome ("success" or "error").
	ObserveToolExecution(tool, status string, duration time.Duration)

	// IncCircuitTransition counts a breaker state change.
	IncCircuitTransition(operation, fromState, toState string)

	// IncDeadLetter counts a permanently failed operation.
	IncDeadLetter(operation, priority string)

	// IncApproval counts an approval outcome ("approved", "denied", "timeout").
	IncApproval(tool, outcome string)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveLLMRequest(_, _ string, _, _ int, _ bool, _ time.Duration) {}

func (n *NoopRecorder) ObserveToolExecution(_, _ string, _ time.Duration) {}

func (n *NoopRecorder) IncCircuitTransition(_, _, _ string) {}

func (n *NoopRecorder) IncDeadLetter(_, _ string) {}

func (n *NoopRecorder) IncApproval(_, _ string) {}
