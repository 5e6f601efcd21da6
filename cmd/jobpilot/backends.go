package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobpilot/pkg/agent/llm"
	"jobpilot/pkg/logx"
	"jobpilot/pkg/tools"
)

// The CLI ships demo backends: analysis and tailoring run on the configured
// model, while document rendering and portal automation are local stand-ins.
// Production deployments inject their own implementations of the backend
// interfaces in pkg/tools.

const analyzeSystemPrompt = `You extract structured hiring requirements from a job description.
Respond with a single JSON object and nothing else, using exactly these keys:
{"title": "", "company": "", "required_skills": [], "nice_to_have": [], "keywords": [], "summary": ""}`

const tailorSystemPrompt = `You rewrite resumes to match a job's requirements.
Rewrite the resume below so it emphasizes the listed required skills and keywords.
Never invent experience the candidate does not have. Respond with the rewritten resume text only.`

type modelAnalyzer struct {
	client llm.LLMClient
}

func (a *modelAnalyzer) AnalyzeJD(ctx context.Context, jdText string) (tools.Requirements, error) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(analyzeSystemPrompt),
		llm.NewUserMessage(jdText),
	})

	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		return tools.Requirements{}, err
	}

	var reqs tools.Requirements
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &reqs); err != nil {
		return tools.Requirements{}, fmt.Errorf("model returned unparseable requirements: %w", err)
	}
	return reqs, nil
}

// extractJSONObject trims any prose the model wrapped around the JSON object.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}

type modelTailor struct {
	client llm.LLMClient
}

func (t *modelTailor) TailorResume(ctx context.Context, baseResume string, reqs tools.Requirements) (string, error) {
	reqsJSON, err := json.Marshal(reqs)
	if err != nil {
		return "", fmt.Errorf("failed to encode requirements: %w", err)
	}

	prompt := fmt.Sprintf("Requirements:\n%s\n\nResume:\n%s", reqsJSON, baseResume)
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(tailorSystemPrompt),
		llm.NewUserMessage(prompt),
	})

	resp, err := t.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("model returned an empty resume")
	}
	return resp.Content, nil
}

// fileCompiler writes the tailored resume to the output directory. Real PDF
// rendering lives outside this module; the written file stands in for it so
// the review and submit stages have a concrete artifact path.
type fileCompiler struct {
	dir string
}

func (c *fileCompiler) CompilePDF(_ context.Context, resume string) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("resume-%d.txt", time.Now().UnixNano()))
	if err := os.WriteFile(path, []byte(resume), 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return path, nil
}

// dryRunPortal logs the submission instead of driving a real portal and
// returns a synthetic confirmation reference.
type dryRunPortal struct {
	logger *logx.Logger
}

func (p *dryRunPortal) Autofill(_ context.Context, portalURL, pdfPath string, fields map[string]string) (string, error) {
	p.logger.Info("🖥️  dry-run submission to %s with %s (%d fields)", portalURL, pdfPath, len(fields))
	return "DRYRUN-" + uuid.New().String()[:8], nil
}
