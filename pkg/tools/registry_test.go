package tools

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"jobpilot/pkg/resilience/retry"
)

type stubTool struct {
	name string
}

func (s *stubTool) Name() string                { return s.name }
func (s *stubTool) PromptDocumentation() string { return "" }
func (s *stubTool) Definition() Definition {
	return Definition{Name: s.name, InputSchema: InputSchema{Type: "object"}}
}
func (s *stubTool) Exec(_ context.Context, _ map[string]any) (any, error) {
	return map[string]any{"success": true}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tool, err := reg.Get("alpha")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if tool.Name() != "alpha" {
		t.Errorf("expected alpha, got %s", tool.Name())
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := reg.Register(&stubTool{name: "alpha"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(nil); err == nil {
		t.Error("expected nil tool to fail")
	}
	if err := reg.Register(&stubTool{name: ""}); err == nil {
		t.Error("expected empty name to fail")
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	reg.Unregister("alpha")

	if _, err := reg.Get("alpha"); err == nil {
		t.Error("expected get after unregister to fail")
	}

	// Unknown name is a no-op.
	reg.Unregister("missing")
}

func TestRegistryListSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := reg.Register(&stubTool{name: name}); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	defs := reg.List()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	for i, want := range []string{"alpha", "bravo", "charlie"} {
		if defs[i].Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, defs[i].Name)
		}
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = reg.Register(&stubTool{name: fmt.Sprintf("tool-%d", n)})
			_ = reg.List()
			_, _ = reg.Get(fmt.Sprintf("tool-%d", n))
		}(i)
	}
	wg.Wait()

	if len(reg.List()) != 20 {
		t.Errorf("expected 20 tools, got %d", len(reg.List()))
	}
}

func TestRetryProfileFor(t *testing.T) {
	cases := map[string]string{
		ToolAnalyzeJD:      retry.ProfileLLM,
		ToolTailorResume:   retry.ProfileLLM,
		ToolCompilePDF:     retry.ProfilePDF,
		ToolPortalAutofill: retry.ProfilePortal,
		ToolReviewStatus:   retry.ProfileNetwork,
		"unknown_tool":     retry.ProfileNetwork,
	}
	for toolName, want := range cases {
		if got := RetryProfileFor(toolName); got != want {
			t.Errorf("%s: expected profile %s, got %s", toolName, want, got)
		}
	}
}
