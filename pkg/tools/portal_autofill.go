package tools

import (
	"context"
	"fmt"

	"jobpilot/pkg/logx"
)

// PortalAutofillTool fills and submits an application form on a job portal.
// Submission is irreversible, so this tool requires human approval.
type PortalAutofillTool struct {
	client PortalClient
	logger *logx.Logger
}

// NewPortalAutofillTool creates the portal_autofill tool.
func NewPortalAutofillTool(client PortalClient) *PortalAutofillTool {
	return &PortalAutofillTool{
		client: client,
		logger: logx.NewLogger("tool-portal-autofill"),
	}
}

// Name returns the tool identifier.
func (t *PortalAutofillTool) Name() string {
	return ToolPortalAutofill
}

// Definition returns the tool's declaration for the model.
func (t *PortalAutofillTool) Definition() Definition {
	return Definition{
		Name:        ToolPortalAutofill,
		Description: "Fill out and submit the application form on the job portal using the compiled resume PDF. Requires human approval before running.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"portal_url": {
					Type:        "string",
					Description: "URL of the application form",
				},
				"pdf_path": {
					Type:        "string",
					Description: "Path of the compiled resume PDF",
				},
				"fields": {
					Type:        "object",
					Description: "Additional form fields as key/value pairs",
				},
			},
			Required: []string{"portal_url", "pdf_path"},
		},
		RequiresApproval: true,
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *PortalAutofillTool) PromptDocumentation() string {
	return `- **portal_autofill** - Submit the application on the job portal
  - Parameters: portal_url (string, required), pdf_path (string, required), fields (object, optional)
  - Requires human approval; the run pauses until the submission is approved or denied
  - Returns a confirmation reference on success`
}

// Exec executes the submission.
func (t *PortalAutofillTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	portalURL, ok := args["portal_url"].(string)
	if !ok || portalURL == "" {
		return nil, fmt.Errorf("portal_url is required")
	}
	pdfPath, ok := args["pdf_path"].(string)
	if !ok || pdfPath == "" {
		return nil, fmt.Errorf("pdf_path is required")
	}

	fields := make(map[string]string)
	if raw, ok := args["fields"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
	}

	t.logger.Info("🚀 submitting application to %s", portalURL)

	confirmation, err := t.client.Autofill(ctx, portalURL, pdfPath, fields)
	if err != nil {
		return nil, fmt.Errorf("portal submission failed: %w", err)
	}

	return map[string]any{
		"success":      true,
		"confirmation": confirmation,
	}, nil
}
