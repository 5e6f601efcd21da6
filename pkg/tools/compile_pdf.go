package tools

import (
	"context"
	"fmt"

	"jobpilot/pkg/logx"
)

// CompilePDFTool renders a tailored resume into a PDF document.
type CompilePDFTool struct {
	compiler PDFCompiler
	logger   *logx.Logger
}

// NewCompilePDFTool creates the compile_pdf tool.
func NewCompilePDFTool(compiler PDFCompiler) *CompilePDFTool {
	return &CompilePDFTool{
		compiler: compiler,
		logger:   logx.NewLogger("tool-compile-pdf"),
	}
}

// Name returns the tool identifier.
func (t *CompilePDFTool) Name() string {
	return ToolCompilePDF
}

// Definition returns the tool's declaration for the model.
func (t *CompilePDFTool) Definition() Definition {
	return Definition{
		Name:        ToolCompilePDF,
		Description: "Compile the tailored resume into a PDF document and return its file path.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"resume": {
					Type:        "string",
					Description: "Tailored resume text to render",
				},
			},
			Required: []string{"resume"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *CompilePDFTool) PromptDocumentation() string {
	return `- **compile_pdf** - Render the tailored resume as a PDF
  - Parameters: resume (string, required)
  - Returns the path of the generated PDF file`
}

// Exec executes the compilation.
func (t *CompilePDFTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	resume, ok := args["resume"].(string)
	if !ok || resume == "" {
		return nil, fmt.Errorf("resume is required")
	}

	t.logger.Info("📄 compiling resume PDF (%d chars)", len(resume))

	path, err := t.compiler.CompilePDF(ctx, resume)
	if err != nil {
		return nil, fmt.Errorf("pdf compilation failed: %w", err)
	}

	return map[string]any{
		"success":  true,
		"pdf_path": path,
	}, nil
}
