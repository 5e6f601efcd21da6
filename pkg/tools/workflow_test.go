package tools

import (
	"context"
	"fmt"
	"testing"
)

type fakeAnalyzer struct {
	reqs Requirements
	err  error
}

func (f *fakeAnalyzer) AnalyzeJD(_ context.Context, _ string) (Requirements, error) {
	return f.reqs, f.err
}

type fakeTailor struct{}

func (f *fakeTailor) TailorResume(_ context.Context, base string, reqs Requirements) (string, error) {
	return base + " / tailored for " + reqs.Title, nil
}

type fakeCompiler struct{}

func (f *fakeCompiler) CompilePDF(_ context.Context, _ string) (string, error) {
	return "/tmp/resume.pdf", nil
}

type fakePortal struct {
	calls int
}

func (f *fakePortal) Autofill(_ context.Context, _, _ string, _ map[string]string) (string, error) {
	f.calls++
	return "CONF-123", nil
}

func TestAnalyzeJDExec(t *testing.T) {
	tool := NewAnalyzeJDTool(&fakeAnalyzer{reqs: Requirements{Title: "Go Engineer"}})

	result, err := tool.Exec(context.Background(), map[string]any{"jd_text": "We need a Go engineer."})
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}

	out := result.(map[string]any)
	if out["success"] != true {
		t.Error("expected success")
	}
	if out["requirements"].(Requirements).Title != "Go Engineer" {
		t.Error("expected requirements in result")
	}
}

func TestAnalyzeJDRequiresText(t *testing.T) {
	tool := NewAnalyzeJDTool(&fakeAnalyzer{})

	if _, err := tool.Exec(context.Background(), map[string]any{}); err == nil {
		t.Error("expected missing jd_text to fail")
	}
	if _, err := tool.Exec(context.Background(), map[string]any{"jd_text": 42}); err == nil {
		t.Error("expected non-string jd_text to fail")
	}
}

func TestAnalyzeJDPropagatesBackendError(t *testing.T) {
	tool := NewAnalyzeJDTool(&fakeAnalyzer{err: fmt.Errorf("model overloaded")})

	if _, err := tool.Exec(context.Background(), map[string]any{"jd_text": "text"}); err == nil {
		t.Error("expected backend error to propagate")
	}
}

func TestTailorResumeExec(t *testing.T) {
	tool := NewTailorResumeTool(&fakeTailor{})

	// Model-supplied arguments arrive as map[string]any, not typed structs.
	result, err := tool.Exec(context.Background(), map[string]any{
		"base_resume": "my resume",
		"requirements": map[string]any{
			"title":           "Go Engineer",
			"required_skills": []any{"go", "sql"},
		},
	})
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}

	out := result.(map[string]any)
	if out["tailored_resume"] != "my resume / tailored for Go Engineer" {
		t.Errorf("unexpected tailored resume: %v", out["tailored_resume"])
	}
}

func TestTailorResumeRequiresArguments(t *testing.T) {
	tool := NewTailorResumeTool(&fakeTailor{})

	if _, err := tool.Exec(context.Background(), map[string]any{"requirements": map[string]any{}}); err == nil {
		t.Error("expected missing base_resume to fail")
	}
	if _, err := tool.Exec(context.Background(), map[string]any{"base_resume": "r"}); err == nil {
		t.Error("expected missing requirements to fail")
	}
}

func TestCompilePDFExec(t *testing.T) {
	tool := NewCompilePDFTool(&fakeCompiler{})

	result, err := tool.Exec(context.Background(), map[string]any{"resume": "tailored"})
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.(map[string]any)["pdf_path"] != "/tmp/resume.pdf" {
		t.Error("expected pdf path in result")
	}
}

func TestPortalAutofillExec(t *testing.T) {
	portal := &fakePortal{}
	tool := NewPortalAutofillTool(portal)

	result, err := tool.Exec(context.Background(), map[string]any{
		"portal_url": "https://jobs.example.com/apply",
		"pdf_path":   "/tmp/resume.pdf",
		"fields":     map[string]any{"name": "Alex", "ignored": 42},
	})
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.(map[string]any)["confirmation"] != "CONF-123" {
		t.Error("expected confirmation in result")
	}
	if portal.calls != 1 {
		t.Errorf("expected one portal call, got %d", portal.calls)
	}
}

func TestPortalAutofillRequiresApproval(t *testing.T) {
	tool := NewPortalAutofillTool(&fakePortal{})

	if !tool.Definition().RequiresApproval {
		t.Error("portal_autofill must require approval")
	}
}

func TestOtherToolsDoNotRequireApproval(t *testing.T) {
	defs := []Definition{
		NewAnalyzeJDTool(&fakeAnalyzer{}).Definition(),
		NewTailorResumeTool(&fakeTailor{}).Definition(),
		NewCompilePDFTool(&fakeCompiler{}).Definition(),
		NewReviewStatusTool().Definition(),
	}
	for _, def := range defs {
		if def.RequiresApproval {
			t.Errorf("%s should not require approval", def.Name)
		}
	}
}

func TestReviewStatusExec(t *testing.T) {
	tool := NewReviewStatusTool()

	result, err := tool.Exec(context.Background(), nil)
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.(map[string]any)["awaiting_review"] != true {
		t.Error("expected awaiting_review flag")
	}
}

func TestDefinitionsHaveObjectSchemas(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(NewAnalyzeJDTool(&fakeAnalyzer{}))
	_ = reg.Register(NewTailorResumeTool(&fakeTailor{}))
	_ = reg.Register(NewCompilePDFTool(&fakeCompiler{}))
	_ = reg.Register(NewPortalAutofillTool(&fakePortal{}))
	_ = reg.Register(NewReviewStatusTool())

	for _, def := range reg.List() {
		if def.InputSchema.Type != "object" {
			t.Errorf("%s: schema type should be object, got %q", def.Name, def.InputSchema.Type)
		}
		if def.Description == "" {
			t.Errorf("%s: missing description", def.Name)
		}
	}
}
