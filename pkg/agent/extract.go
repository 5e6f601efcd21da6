package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"jobpilot/pkg/agent/llm"
	"jobpilot/pkg/logx"
)

// toolMarkerRegex matches embedded <tool>name</tool><args>{...}</args> spans
// in model text. Secondary path behind natively structured tool calls, for
// models that narrate tool use instead of using the tools API.
var toolMarkerRegex = regexp.MustCompile(`(?s)<tool>\s*([a-zA-Z0-9_-]+)\s*</tool>\s*<args>\s*(\{.*?\})\s*</args>`)

// completionMarkers end the loop when present in the response text.
var completionMarkers = []string{"<complete>", "<done>", "<finished>"}

// extractToolCalls returns the tool calls in a response. Native calls win;
// the marker parser is the fallback. Spans with invalid argument payloads
// are skipped with a warning, never fatal.
func extractToolCalls(resp llm.CompletionResponse, logger *logx.Logger) []llm.ToolCall {
	if len(resp.ToolCalls) > 0 {
		return resp.ToolCalls
	}

	matches := toolMarkerRegex.FindAllStringSubmatch(resp.Content, -1)
	if len(matches) == 0 {
		return nil
	}

	var calls []llm.ToolCall
	for _, match := range matches {
		name, rawArgs := match[1], match[2]

		var args map[string]any
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			if logger != nil {
				logger.Warn("skipping tool span %s: invalid arguments: %v", name, err)
			}
			continue
		}

		calls = append(calls, llm.ToolCall{
			ID:         uuid.New().String(),
			Name:       name,
			Parameters: args,
		})
	}
	return calls
}

// hasCompletionMarker reports whether the text declares the run finished.
func hasCompletionMarker(content string) bool {
	for _, marker := range completionMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
