package tools

import "context"

// Tool names for the job-application workflow.
const (
	ToolAnalyzeJD      = "analyze_jd"
	ToolTailorResume   = "tailor_resume"
	ToolCompilePDF     = "compile_pdf"
	ToolPortalAutofill = "portal_autofill"
	ToolReviewStatus   = "review_status"
)

// The workflow tools are thin adapters over external services. Each backend
// interface is the narrow contract that service is consumed through; the
// concrete implementations (model-backed analysis, LaTeX compilation,
// browser automation) live outside this module.

// JDAnalyzer extracts structured requirements from raw job-description text.
type JDAnalyzer interface {
	AnalyzeJD(ctx context.Context, jdText string) (Requirements, error)
}

// Requirements is the structured output of job-description analysis.
type Requirements struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	RequiredSkills []string `json:"required_skills"`
	NiceToHave     []string `json:"nice_to_have"`
	Keywords       []string `json:"keywords"`
	Summary        string   `json:"summary"`
}

// ResumeTailor rewrites a base resume against extracted requirements.
type ResumeTailor interface {
	TailorResume(ctx context.Context, baseResume string, reqs Requirements) (string, error)
}

// PDFCompiler renders a tailored resume into a PDF, returning its path.
type PDFCompiler interface {
	CompilePDF(ctx context.Context, resume string) (string, error)
}

// PortalClient fills and submits an application form on a job portal.
type PortalClient interface {
	Autofill(ctx context.Context, portalURL, pdfPath string, fields map[string]string) (string, error)
}
