// Package agent implements the iterative agent runtime: context assembly,
// inference, tool extraction and execution, approval gating, and streaming.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"jobpilot/pkg/agent/llm"
	metricsmw "jobpilot/pkg/agent/middleware/metrics"
	retrymw "jobpilot/pkg/agent/middleware/retry"
	"jobpilot/pkg/config"
	"jobpilot/pkg/events"
	"jobpilot/pkg/logx"
	"jobpilot/pkg/metrics"
	"jobpilot/pkg/resilience/circuit"
	"jobpilot/pkg/resilience/deadletter"
	"jobpilot/pkg/resilience/retry"
	"jobpilot/pkg/session"
	"jobpilot/pkg/tools"
)

const approvalDeniedMessage = "Tool execution was not approved"

// Runtime drives one session's agent loop at a time. Independent sessions
// get independent runtimes; only the circuit breaker registry and the
// dead-letter sink are shared across them.
type Runtime struct {
	client    llm.LLMClient
	registry  *tools.Registry
	breakers  *circuit.Registry
	profiles  *retry.Profiles
	sink      *deadletter.Sink
	sessions  *session.Store
	emitter   *events.Emitter
	approvals *approvalManager
	recorder  metrics.Recorder
	logger    *logx.Logger
	cfg       config.Agent

	state     *State
	cancelled atomic.Bool
	running   atomic.Bool
}

// Deps carries the runtime's collaborators. Registry, Breakers, Profiles,
// Sink, Sessions, and Emitter are required; Recorder defaults to a no-op.
type Deps struct {
	Client   llm.LLMClient
	Registry *tools.Registry
	Breakers *circuit.Registry
	Profiles *retry.Profiles
	Sink     *deadletter.Sink
	Sessions *session.Store
	Emitter  *events.Emitter
	Recorder metrics.Recorder
}

// NewRuntime creates an agent runtime. Inference is wrapped in the llm retry
// profile here, so a raw adapter client is fine; tool calls get their own
// breaker and per-tool profile at execution time.
func NewRuntime(cfg config.Agent, deps Deps) *Runtime {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop()
	}

	logger := logx.NewLogger("agent")
	state := newState()
	client := llm.Chain(deps.Client,
		metricsmw.Middleware(recorder, state.CurrentSession, nil),
		retrymw.Middleware(deps.Profiles.Get(retry.ProfileLLM), logger),
	)

	return &Runtime{
		client:    client,
		registry:  deps.Registry,
		breakers:  deps.Breakers,
		profiles:  deps.Profiles,
		sink:      deps.Sink,
		sessions:  deps.Sessions,
		emitter:   deps.Emitter,
		approvals: newApprovalManager(cfg.ApprovalTimeout, deps.Emitter, recorder),
		recorder:  recorder,
		logger:    logger,
		cfg:       cfg,
		state:     state,
	}
}

// State exposes the runtime's transient status record.
func (r *Runtime) State() *State {
	return r.state
}

// RegisterTool adds a tool to the runtime's registry.
func (r *Runtime) RegisterTool(tool tools.Tool) error {
	return r.registry.Register(tool)
}

// UnregisterTool removes a tool from the runtime's registry.
func (r *Runtime) UnregisterTool(name string) {
	r.registry.Unregister(name)
}

// ApproveTool delivers an external approval decision for a pending call.
func (r *Runtime) ApproveTool(toolCallID string, approved bool) error {
	return r.approvals.resolve(toolCallID, approved)
}

// Cancel stops the run cooperatively: in-flight work finishes, but no new
// iteration or tool call starts. The session is marked cancelled.
func (r *Runtime) Cancel() {
	if !r.running.Load() {
		return
	}
	r.cancelled.Store(true)
	if sessionID := r.state.CurrentSession(); sessionID != "" {
		if err := r.sessions.UpdateStatus(sessionID, session.StatusCancelled); err != nil {
			r.logger.Warn("failed to mark session cancelled: %v", err)
		}
	}
	r.logger.Info("🛑 cancellation requested")
}

// Execute runs the agent loop for one session until a stop condition.
func (r *Runtime) Execute(ctx context.Context, sessionID, userInput string, opts Options) Result {
	if !r.running.CompareAndSwap(false, true) {
		return Result{Success: false, Error: "runtime is already executing a session"}
	}
	defer r.running.Store(false)
	defer r.state.reset()
	r.cancelled.Store(false)

	start := time.Now()
	sess := r.sessions.GetSession(sessionID)
	sessionID = sess.ID

	r.state.startRun(sessionID)
	r.setStatus(sessionID, StatusThinking)

	// The intake goes into memory before the first iteration so every later
	// context assembly replays it; without it the task would vanish from the
	// conversation after iteration 1.
	if userInput != "" {
		if err := r.sessions.AddMemory(sessionID, "User: "+userInput); err != nil {
			r.logger.Warn("failed to record user input: %v", err)
		}
	}

	maxIterations := r.cfg.MaxIterations
	if opts.MaxIterations > 0 {
		maxIterations = opts.MaxIterations
	}
	systemPrompt := r.cfg.SystemPrompt
	if opts.SystemPrompt != "" {
		systemPrompt = opts.SystemPrompt
	}

	var iterations []Iteration
	var finalOutput string
	totalTokens := 0

	fail := func(err error) Result {
		msg := err.Error()
		r.state.setError(msg)
		r.setStatus(sessionID, StatusFailed)
		if updateErr := r.sessions.UpdateStatus(sessionID, session.StatusFailed); updateErr != nil {
			r.logger.Warn("failed to mark session failed: %v", updateErr)
		}
		r.emitter.Emit(events.Error, map[string]any{"session_id": sessionID, "error": msg})
		return Result{
			Success:         false,
			Iterations:      iterations,
			FinalOutput:     finalOutput,
			TotalDuration:   time.Since(start),
			TotalTokensUsed: totalTokens,
			Error:           msg,
		}
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if r.cancelled.Load() || ctx.Err() != nil {
			break
		}

		r.state.setIteration(iteration)
		r.emitter.Emit(events.IterationStart, IterationPayload{SessionID: sessionID, Number: iteration})
		iterStart := time.Now()

		messages := r.assembleContext(sessionID, systemPrompt)

		r.setStatus(sessionID, StatusThinking)
		req := llm.NewCompletionRequest(messages)
		req.Tools = r.registry.List()
		resp, err := r.client.Complete(ctx, req)
		if err != nil {
			return fail(fmt.Errorf("inference failed: %w", err))
		}

		if resp.Usage != nil {
			totalTokens += resp.Usage.TotalTokens()
		}

		r.streamContent(sessionID, resp.Content)

		toolCalls := extractToolCalls(resp, r.logger)

		var results []tools.Result
		if len(toolCalls) > 0 {
			r.setStatus(sessionID, StatusCallingTools)
			results = r.executeToolCalls(ctx, sessionID, toolCalls)
		}

		iterations = append(iterations, Iteration{
			Number:      iteration,
			Messages:    messages,
			Response:    resp,
			ToolCalls:   toolCalls,
			ToolResults: results,
			Elapsed:     time.Since(iterStart),
		})

		r.recordMemory(sessionID, resp.Content, results)
		if err := r.sessions.UpdateMetrics(sessionID, session.Metrics{
			TokensUsed: usageTokens(resp.Usage),
			ToolCalls:  len(toolCalls),
			Iterations: 1,
		}); err != nil {
			r.logger.Warn("failed to update session metrics: %v", err)
		}

		finalOutput = resp.Content
		r.emitter.Emit(events.IterationEnd, IterationPayload{SessionID: sessionID, Number: iteration})

		if len(toolCalls) == 0 || hasCompletionMarker(resp.Content) {
			break
		}
	}

	cancelled := r.cancelled.Load() || ctx.Err() != nil
	if cancelled {
		r.logger.Info("run cancelled after %d iterations", len(iterations))
		if err := r.sessions.UpdateStatus(sessionID, session.StatusCancelled); err != nil {
			r.logger.Warn("failed to mark session cancelled: %v", err)
		}
	} else {
		r.setStatus(sessionID, StatusCompleted)
		if err := r.sessions.UpdateStatus(sessionID, session.StatusCompleted); err != nil {
			r.logger.Warn("failed to mark session completed: %v", err)
		}
	}

	result := Result{
		Success:         !cancelled,
		Iterations:      iterations,
		FinalOutput:     finalOutput,
		TotalDuration:   time.Since(start),
		TotalTokensUsed: totalTokens,
	}
	if cancelled {
		result.Error = "run cancelled"
	}
	r.emitter.Emit(events.Complete, map[string]any{
		"session_id": sessionID,
		"success":    result.Success,
		"iterations": len(iterations),
	})
	return result
}

// assembleContext builds the message list: optional system prompt, then the
// session memory replayed as alternating roles. Memory holds the original
// user input, prior assistant turns, and tool results, so the full task
// survives every iteration.
func (r *Runtime) assembleContext(sessionID, systemPrompt string) []llm.CompletionMessage {
	var messages []llm.CompletionMessage
	if systemPrompt != "" {
		messages = append(messages, llm.NewSystemMessage(systemPrompt))
	}

	sess := r.sessions.GetSession(sessionID)
	for _, line := range sess.Memory {
		if content, ok := strings.CutPrefix(line, "Assistant: "); ok {
			messages = append(messages, llm.NewAssistantMessage(content))
		} else {
			messages = append(messages, llm.NewUserMessage(strings.TrimPrefix(line, "User: ")))
		}
	}
	return messages
}

// executeToolCalls runs the extracted calls strictly in order. Every call
// produces a result; failures become error results rather than aborting the
// iteration.
func (r *Runtime) executeToolCalls(ctx context.Context, sessionID string, calls []llm.ToolCall) []tools.Result {
	results := make([]tools.Result, 0, len(calls))
	for i := range calls {
		if r.cancelled.Load() || ctx.Err() != nil {
			break
		}
		result := r.executeToolCall(ctx, sessionID, &calls[i])
		results = append(results, result)

		r.emitter.Emit(events.StreamChunk, ToolNotification{
			SessionID:  sessionID,
			ToolCallID: result.ToolCallID,
			ToolName:   calls[i].Name,
			Status:     result.Status,
		})
	}
	return results
}

func (r *Runtime) executeToolCall(ctx context.Context, sessionID string, call *llm.ToolCall) tools.Result {
	start := time.Now()

	errorResult := func(err error) tools.Result {
		r.recorder.ObserveToolExecution(call.Name, string(tools.StatusError), time.Since(start))
		return tools.Result{
			ToolCallID:    call.ID,
			Status:        tools.StatusError,
			Error:         err.Error(),
			ExecutionTime: time.Since(start),
		}
	}

	tool, err := r.registry.Get(call.Name)
	if err != nil {
		return errorResult(err)
	}

	if tool.Definition().RequiresApproval {
		r.setStatus(sessionID, StatusWaitingForApproval)
		approved := r.approvals.await(ctx, ApprovalRequest{
			ToolCallID:  call.ID,
			ToolName:    call.Name,
			Arguments:   call.Parameters,
			SessionID:   sessionID,
			RequestedAt: time.Now().UTC(),
		})
		r.setStatus(sessionID, StatusCallingTools)
		if !approved {
			return errorResult(errors.New(approvalDeniedMessage))
		}
	}

	policy := r.profiles.Get(tools.RetryProfileFor(call.Name))
	breaker := r.breakers.Get(call.Name)

	value, err := breaker.Execute(func() (any, error) {
		res := policy.Execute(ctx, func() (any, error) {
			return tool.Exec(ctx, call.Parameters)
		})
		if !res.Success {
			return nil, res.Error
		}
		return res.Result, nil
	})
	if err != nil {
		var openErr *circuit.OpenError
		if !errors.As(err, &openErr) {
			// Exhausted retries on a real fault: preserve it for manual replay.
			r.sink.Add(call.Name, map[string]any{
				"session_id": sessionID,
				"arguments":  call.Parameters,
			}, err, deadletter.PriorityHigh)
			r.recorder.IncDeadLetter(call.Name, string(deadletter.PriorityHigh))
		}
		return errorResult(err)
	}

	r.recorder.ObserveToolExecution(call.Name, string(tools.StatusSuccess), time.Since(start))
	return tools.Result{
		ToolCallID:    call.ID,
		Status:        tools.StatusSuccess,
		Result:        value,
		ExecutionTime: time.Since(start),
	}
}

// streamContent emits the model's text word by word for live consumption.
// Presentation only: control flow never depends on these events.
func (r *Runtime) streamContent(sessionID, content string) {
	for _, word := range strings.Fields(content) {
		r.emitter.Emit(events.StreamChunk, StreamChunkPayload{SessionID: sessionID, Chunk: word})
	}
}

func (r *Runtime) recordMemory(sessionID, content string, results []tools.Result) {
	if content != "" {
		if err := r.sessions.AddMemory(sessionID, "Assistant: "+content); err != nil {
			r.logger.Warn("failed to record assistant turn: %v", err)
		}
	}
	for i := range results {
		res := &results[i]
		line := fmt.Sprintf("User: Tool %s returned: %s", res.ToolCallID, toolResultPayload(res.Result))
		if res.Status == tools.StatusError {
			line = fmt.Sprintf("User: Tool %s failed: %s", res.ToolCallID, res.Error)
		}
		if err := r.sessions.AddMemory(sessionID, line); err != nil {
			r.logger.Warn("failed to record tool result: %v", err)
		}
	}
}

// toolResultPayload renders a tool's return value so the model can read it in
// the next iteration's context.
func toolResultPayload(value any) string {
	if value == nil {
		return "success"
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(raw)
}

func (r *Runtime) setStatus(sessionID string, status Status) {
	r.state.setStatus(status)
	r.emitter.Emit(events.StatusChanged, StatusChangePayload{SessionID: sessionID, Status: status})
}

func usageTokens(usage *llm.Usage) int {
	if usage == nil {
		return 0
	}
	return usage.TotalTokens()
}
