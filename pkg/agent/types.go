package agent

import (
	"time"

	"jobpilot/pkg/agent/llm"
	"jobpilot/pkg/tools"
)

// Iteration is the immutable record of one loop pass. Appended to the run's
// history when the pass finishes; never mutated afterwards.
type Iteration struct {
	Number      int                     `json:"number"`
	Messages    []llm.CompletionMessage `json:"messages"`
	Response    llm.CompletionResponse  `json:"response"`
	ToolCalls   []llm.ToolCall          `json:"tool_calls"`
	ToolResults []tools.Result          `json:"tool_results"`
	Elapsed     time.Duration           `json:"elapsed"`
}

// Result is the structured outcome of one run. Partial iteration history is
// preserved even when the run fails.
type Result struct {
	Success         bool          `json:"success"`
	Iterations      []Iteration   `json:"iterations"`
	FinalOutput     string        `json:"final_output"`
	TotalDuration   time.Duration `json:"total_duration"`
	TotalTokensUsed int           `json:"total_tokens_used"`
	Error           string        `json:"error,omitempty"`
}

// Options tunes one run without reconfiguring the runtime.
type Options struct {
	// SystemPrompt overrides the configured system prompt when non-empty.
	SystemPrompt string
	// MaxIterations overrides the configured bound when positive.
	MaxIterations int
}

// StreamChunkPayload is emitted once per word of model text.
type StreamChunkPayload struct {
	SessionID string `json:"session_id"`
	Chunk     string `json:"chunk"`
}

// ToolNotification is the compact per-call result payload for live UIs.
type ToolNotification struct {
	SessionID  string             `json:"session_id"`
	ToolCallID string             `json:"tool_call_id"`
	ToolName   string             `json:"tool_name"`
	Status     tools.ResultStatus `json:"status"`
}

// StatusChangePayload accompanies status_changed events.
type StatusChangePayload struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
}

// IterationPayload accompanies iteration_start and iteration_end events.
type IterationPayload struct {
	SessionID string `json:"session_id"`
	Number    int    `json:"number"`
}
