// Package tools provides the tool contract and registry for the agent
// runtime: declared tool definitions with JSON schemas, approval flags, and
// handlers for the job-application workflow steps.
package tools

import (
	"context"
	"time"
)

// Property describes one parameter in a tool's input schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema is a JSON-schema object describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Definition declares a tool to the model and the runtime. RequiresApproval
// gates execution behind a human decision.
type Definition struct {
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	InputSchema      InputSchema `json:"input_schema"`
	RequiresApproval bool        `json:"-"`
}

// ResultStatus marks a tool result as success or error.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// Result is produced for every tool call the runtime dispatches, either by
// the tool itself or synthesized on dispatch, approval, or circuit failure.
type Result struct {
	ToolCallID    string        `json:"tool_call_id"`
	Status        ResultStatus  `json:"status"`
	Result        any           `json:"result,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// Tool is one invocable capability. Definitions are immutable after
// registration; Exec may be called concurrently from independent sessions.
type Tool interface {
	// Name returns the tool identifier.
	Name() string

	// Definition returns the tool's declaration for the model.
	Definition() Definition

	// PromptDocumentation returns markdown documentation for LLM prompts.
	PromptDocumentation() string

	// Exec executes the tool with the given arguments.
	Exec(ctx context.Context, args map[string]any) (any, error)
}
