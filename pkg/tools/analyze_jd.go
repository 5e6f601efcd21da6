package tools

import (
	"context"
	"fmt"

	"jobpilot/pkg/logx"
)

// AnalyzeJDTool extracts structured requirements from a job description.
type AnalyzeJDTool struct {
	analyzer JDAnalyzer
	logger   *logx.Logger
}

// NewAnalyzeJDTool creates the analyze_jd tool backed by the given analyzer.
func NewAnalyzeJDTool(analyzer JDAnalyzer) *AnalyzeJDTool {
	return &AnalyzeJDTool{
		analyzer: analyzer,
		logger:   logx.NewLogger("tool-analyze-jd"),
	}
}

// Name returns the tool identifier.
func (t *AnalyzeJDTool) Name() string {
	return ToolAnalyzeJD
}

// Definition returns the tool's declaration for the model.
func (t *AnalyzeJDTool) Definition() Definition {
	return Definition{
		Name:        ToolAnalyzeJD,
		Description: "Analyze a job description and extract structured requirements: title, company, required skills, nice-to-haves, and keywords.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"jd_text": {
					Type:        "string",
					Description: "Raw job description text to analyze",
				},
			},
			Required: []string{"jd_text"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *AnalyzeJDTool) PromptDocumentation() string {
	return `- **analyze_jd** - Extract structured requirements from a job description
  - Parameters: jd_text (string, required)
  - Returns title, company, required skills, nice-to-haves, and keywords
  - Call this first, before tailoring the resume`
}

// Exec executes the analysis.
func (t *AnalyzeJDTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	jdText, ok := args["jd_text"].(string)
	if !ok || jdText == "" {
		return nil, fmt.Errorf("jd_text is required")
	}

	t.logger.Info("🔍 analyzing job description (%d chars)", len(jdText))

	reqs, err := t.analyzer.AnalyzeJD(ctx, jdText)
	if err != nil {
		return nil, fmt.Errorf("jd analysis failed: %w", err)
	}

	return map[string]any{
		"success":      true,
		"requirements": reqs,
	}, nil
}
