// Package retry provides retry middleware for LLM clients, wrapping
// inference calls in the llm retry profile.
package retry

import (
	"context"
	"fmt"

	"jobpilot/pkg/agent/llm"
	"jobpilot/pkg/logx"
	"jobpilot/pkg/resilience/retry"
)

// Middleware wraps Complete calls in the given retry policy. Inference has
// no circuit breaker in front of it: a permanently failed completion is
// terminal for the run, so retry exhaustion surfaces directly.
func Middleware(policy *retry.Policy, logger *logx.Logger) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				result := policy.Execute(ctx, func() (any, error) {
					return next.Complete(ctx, req)
				})
				if !result.Success {
					if logger != nil {
						logger.Warn("inference failed after %d attempts: %v", result.Attempts, result.Error)
					}
					return llm.CompletionResponse{}, fmt.Errorf("inference failed after %d attempts: %w", result.Attempts, result.Error)
				}

				resp, ok := result.Result.(llm.CompletionResponse)
				if !ok {
					return llm.CompletionResponse{}, fmt.Errorf("unexpected completion result type %T", result.Result)
				}
				return resp, nil
			},
			next.GetModelName,
		)
	}
}
