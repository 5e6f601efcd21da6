package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobpilot/pkg/events"
	"jobpilot/pkg/logx"
	"jobpilot/pkg/metrics"
)

// ApprovalRequest is the payload of an approval_requested event.
type ApprovalRequest struct {
	ToolCallID  string         `json:"tool_call_id"`
	ToolName    string         `json:"tool_name"`
	Arguments   map[string]any `json:"arguments"`
	SessionID   string         `json:"session_id"`
	RequestedAt time.Time      `json:"requested_at"`
}

const (
	approvalOutcomeApproved = "approved"
	approvalOutcomeDenied   = "denied"
	approvalOutcomeTimeout  = "timeout"
)

// approvalManager gates sensitive tool calls behind a human decision. Each
// pending approval is a one-shot channel: the first resolution (external
// decision, timeout, or cancellation) wins and the channel is removed, so
// exactly one pending approval exists per tool call ID.
type approvalManager struct {
	mu       sync.Mutex
	pending  map[string]chan bool
	timeout  time.Duration
	emitter  *events.Emitter
	recorder metrics.Recorder
	logger   *logx.Logger
}

func newApprovalManager(timeout time.Duration, emitter *events.Emitter, recorder metrics.Recorder) *approvalManager {
	return &approvalManager{
		pending:  make(map[string]chan bool),
		timeout:  timeout,
		emitter:  emitter,
		recorder: recorder,
		logger:   logx.NewLogger("approval"),
	}
}

// await publishes the approval request and blocks until an external approver
// resolves it or the timeout elapses. Timeout counts as denial.
func (m *approvalManager) await(ctx context.Context, req ApprovalRequest) bool {
	ch := make(chan bool, 1)

	m.mu.Lock()
	m.pending[req.ToolCallID] = ch
	m.mu.Unlock()

	m.logger.Info("⏸️  approval requested for %s (call %s)", req.ToolName, req.ToolCallID)
	m.emitter.Emit(events.ApprovalRequested, req)

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case approved := <-ch:
		outcome := approvalOutcomeDenied
		if approved {
			outcome = approvalOutcomeApproved
		}
		m.recorder.IncApproval(req.ToolName, outcome)
		return approved
	case <-timer.C:
		m.remove(req.ToolCallID)
		m.logger.Warn("approval for %s timed out after %s, treating as denial", req.ToolName, m.timeout)
		m.recorder.IncApproval(req.ToolName, approvalOutcomeTimeout)
		return false
	case <-ctx.Done():
		m.remove(req.ToolCallID)
		m.recorder.IncApproval(req.ToolName, approvalOutcomeDenied)
		return false
	}
}

// resolve delivers an external approval decision. Unknown or already
// resolved IDs are an error.
func (m *approvalManager) resolve(toolCallID string, approved bool) error {
	m.mu.Lock()
	ch, ok := m.pending[toolCallID]
	if ok {
		delete(m.pending, toolCallID)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending approval for tool call %s", toolCallID)
	}
	ch <- approved
	return nil
}

func (m *approvalManager) remove(toolCallID string) {
	m.mu.Lock()
	delete(m.pending, toolCallID)
	m.mu.Unlock()
}
