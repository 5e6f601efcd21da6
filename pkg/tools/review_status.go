package tools

import (
	"context"
)

// ReviewStatusTool reports that the workflow is parked awaiting human review.
// It performs no external work; the model calls it to signal the pause
// instead of inventing a next step.
type ReviewStatusTool struct{}

// NewReviewStatusTool creates the review_status tool.
func NewReviewStatusTool() *ReviewStatusTool {
	return &ReviewStatusTool{}
}

// Name returns the tool identifier.
func (t *ReviewStatusTool) Name() string {
	return ToolReviewStatus
}

// Definition returns the tool's declaration for the model.
func (t *ReviewStatusTool) Definition() Definition {
	return Definition{
		Name:        ToolReviewStatus,
		Description: "Signal that the tailored application is ready and waiting for the user's review decision. Use when no further automated work remains.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ReviewStatusTool) PromptDocumentation() string {
	return `- **review_status** - Signal that the application awaits human review
  - No parameters required
  - Use after compile_pdf when the workflow is parked on the user's decision`
}

// Exec reports the waiting state.
func (t *ReviewStatusTool) Exec(_ context.Context, _ map[string]any) (any, error) {
	return map[string]any{
		"success":         true,
		"message":         "Awaiting human review",
		"awaiting_review": true,
	}, nil
}
