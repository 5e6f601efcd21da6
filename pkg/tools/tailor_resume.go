package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"jobpilot/pkg/logx"
)

// TailorResumeTool rewrites a base resume against extracted requirements.
type TailorResumeTool struct {
	tailor ResumeTailor
	logger *logx.Logger
}

// NewTailorResumeTool creates the tailor_resume tool.
func NewTailorResumeTool(tailor ResumeTailor) *TailorResumeTool {
	return &TailorResumeTool{
		tailor: tailor,
		logger: logx.NewLogger("tool-tailor-resume"),
	}
}

// Name returns the tool identifier.
func (t *TailorResumeTool) Name() string {
	return ToolTailorResume
}

// Definition returns the tool's declaration for the model.
func (t *TailorResumeTool) Definition() Definition {
	return Definition{
		Name:        ToolTailorResume,
		Description: "Tailor a base resume to match extracted job requirements, emphasizing relevant skills and keywords.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"base_resume": {
					Type:        "string",
					Description: "The candidate's base resume text",
				},
				"requirements": {
					Type:        "object",
					Description: "Structured requirements produced by analyze_jd",
				},
			},
			Required: []string{"base_resume", "requirements"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *TailorResumeTool) PromptDocumentation() string {
	return `- **tailor_resume** - Rewrite the base resume to match the job requirements
  - Parameters: base_resume (string, required), requirements (object, required)
  - Requires analyze_jd output; returns the tailored resume text`
}

// Exec executes the tailoring.
func (t *TailorResumeTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	baseResume, ok := args["base_resume"].(string)
	if !ok || baseResume == "" {
		return nil, fmt.Errorf("base_resume is required")
	}

	reqs, err := requirementsFromArgs(args["requirements"])
	if err != nil {
		return nil, err
	}

	t.logger.Info("✂️  tailoring resume for %s", reqs.Title)

	tailored, err := t.tailor.TailorResume(ctx, baseResume, reqs)
	if err != nil {
		return nil, fmt.Errorf("resume tailoring failed: %w", err)
	}

	return map[string]any{
		"success":         true,
		"tailored_resume": tailored,
	}, nil
}

// requirementsFromArgs converts the loosely-typed tool argument back into a
// Requirements value. Model-supplied arguments arrive as map[string]any.
func requirementsFromArgs(v any) (Requirements, error) {
	if v == nil {
		return Requirements{}, fmt.Errorf("requirements is required")
	}
	if reqs, ok := v.(Requirements); ok {
		return reqs, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return Requirements{}, fmt.Errorf("invalid requirements payload: %w", err)
	}
	var reqs Requirements
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return Requirements{}, fmt.Errorf("invalid requirements payload: %w", err)
	}
	return reqs, nil
}
