// Package metrics provides metrics middleware for LLM clients, tracking
// request latency and token usage per model.
package metrics

import (
	"context"
	"time"

	"jobpilot/pkg/agent/llm"
	"jobpilot/pkg/metrics"
	"jobpilot/pkg/utils"
)

// SessionProvider supplies the session ID the current completion belongs to.
type SessionProvider func() string

// UsageExtractor derives token usage from a request and response when the
// provider does not report it.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) llm.Usage

// DefaultUsageExtractor counts tokens with tiktoken as an approximation.
func DefaultUsageExtractor(req llm.CompletionRequest, resp llm.CompletionResponse) llm.Usage {
	var promptText string
	for i := range req.Messages {
		promptText += req.Messages[i].Content + "\n"
	}
	return llm.Usage{
		PromptTokens:     utils.CountTokensSimple(promptText),
		CompletionTokens: utils.CountTokensSimple(resp.Content),
	}
}

// Middleware records request counts, latency, and token usage for every
// completion. Provider-reported usage wins; the extractor fills the gap.
func Middleware(recorder metrics.Recorder, sessionProvider SessionProvider, usageExtractor UsageExtractor) llm.Middleware {
	if usageExtractor == nil {
		usageExtractor = DefaultUsageExtractor
	}
	if sessionProvider == nil {
		sessionProvider = func() string { return "" }
	}

	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				var usage llm.Usage
				if err == nil {
					if resp.Usage != nil {
						usage = *resp.Usage
					} else {
						usage = usageExtractor(req, resp)
					}
				}

				recorder.ObserveLLMRequest(
					next.GetModelName(), sessionProvider(),
					usage.PromptTokens, usage.CompletionTokens,
					err == nil, duration,
				)
				return resp, err
			},
			next.GetModelName,
		)
	}
}
