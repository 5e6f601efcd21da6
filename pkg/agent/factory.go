package agent

import (
	"fmt"

	"jobpilot/pkg/agent/internal/llmimpl/anthropic"
	"jobpilot/pkg/agent/internal/llmimpl/openai"
	"jobpilot/pkg/agent/llm"
	"jobpilot/pkg/config"
)

// NewLLMClient constructs the raw provider client for the configured model.
// Middleware (retry, metrics) is applied by the runtime and callers, not
// here.
func NewLLMClient(model config.Model) (llm.LLMClient, error) {
	apiKey, err := model.APIKey()
	if err != nil {
		return nil, err
	}

	switch model.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClient(apiKey, model.Name), nil
	case config.ProviderOpenAI:
		return openai.NewClient(apiKey, model.Name), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", model.Provider)
	}
}
