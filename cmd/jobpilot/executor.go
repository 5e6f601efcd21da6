package main

import (
	"context"
	"fmt"

	"jobpilot/pkg/job"
	"jobpilot/pkg/planner"
	"jobpilot/pkg/tools"
)

// toolExecutor satisfies planner.ActionExecutor by dispatching each workflow
// action to its registered tool and mapping the tool output back onto the job
// context keys the next stage reads.
type toolExecutor struct {
	registry   *tools.Registry
	baseResume string
	portalURL  string
	fields     map[string]any
}

func (e *toolExecutor) ExecuteAction(ctx context.Context, action planner.Action, jobCtx job.Context) (map[string]any, error) {
	switch action {
	case planner.ActionAnalyzeJD:
		out, err := e.exec(ctx, tools.ToolAnalyzeJD, map[string]any{
			"jd_text": jobCtx.Data[job.KeyJDText],
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{job.KeyRequirements: out["requirements"]}, nil

	case planner.ActionTailorResume:
		out, err := e.exec(ctx, tools.ToolTailorResume, map[string]any{
			"base_resume":  e.baseResume,
			"requirements": jobCtx.Data[job.KeyRequirements],
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{job.KeyTailoredResume: out["tailored_resume"]}, nil

	case planner.ActionCompilePDF:
		out, err := e.exec(ctx, tools.ToolCompilePDF, map[string]any{
			"resume": jobCtx.Data[job.KeyTailoredResume],
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{job.KeyPDFPath: out["pdf_path"]}, nil

	case planner.ActionPortalAutofill:
		out, err := e.exec(ctx, tools.ToolPortalAutofill, map[string]any{
			"portal_url": e.portalURL,
			"pdf_path":   jobCtx.Data[job.KeyPDFPath],
			"fields":     e.fields,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{job.KeyOutcome: fmt.Sprintf("submitted:%v", out["confirmation"])}, nil

	default:
		return nil, fmt.Errorf("no executor for action %q", action)
	}
}

func (e *toolExecutor) exec(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	tool, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}

	result, err := tool.Exec(ctx, args)
	if err != nil {
		return nil, err
	}

	out, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tool %s returned unexpected payload %T", name, result)
	}
	return out, nil
}
