package tools

import (
	"fmt"
	"sort"
	"sync"

	"jobpilot/pkg/resilience/retry"
)

// Registry holds the tools available to one runtime. There is no process
// global: construct a Registry and inject it wherever tools are needed, so
// tests and concurrent runtimes stay isolated.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is an error; tools are
// registered once at startup and immutable thereafter.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Unregister removes a tool by name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return tool, nil
}

// List returns the definitions of all registered tools, sorted by name for
// deterministic prompt assembly.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// RetryProfileFor maps a tool name to the retry profile that governs its
// execution. Unknown tools get the network profile.
func RetryProfileFor(toolName string) string {
	switch toolName {
	case ToolAnalyzeJD, ToolTailorResume:
		return retry.ProfileLLM
	case ToolCompilePDF:
		return retry.ProfilePDF
	case ToolPortalAutofill:
		return retry.ProfilePortal
	default:
		return retry.ProfileNetwork
	}
}
