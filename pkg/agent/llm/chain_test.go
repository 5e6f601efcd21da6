package llm

import (
	"context"
	"fmt"
	"testing"
)

func TestWrapClient(t *testing.T) {
	client := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "wrapped"}, nil
		},
		func() string { return "test-model" },
	)

	resp, err := client.Complete(context.Background(), NewCompletionRequest(nil))
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if resp.Content != "wrapped" {
		t.Errorf("expected wrapped, got %s", resp.Content)
	}
	if client.GetModelName() != "test-model" {
		t.Errorf("expected test-model, got %s", client.GetModelName())
	}
}

func TestChainOrdering(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next LLMClient) LLMClient {
			return WrapClient(
				func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
					order = append(order, name)
					return next.Complete(ctx, req)
				},
				next.GetModelName,
			)
		}
	}

	base := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			order = append(order, "base")
			return CompletionResponse{}, nil
		},
		func() string { return "base" },
	)

	client := Chain(base, tag("outer"), tag("middle"), tag("inner"))
	if _, err := client.Complete(context.Background(), CompletionRequest{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	want := []string{"outer", "middle", "inner", "base"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected call order %v, got %v", want, order)
	}
}

func TestChainNoMiddleware(t *testing.T) {
	base := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "base"}, nil
		},
		func() string { return "base" },
	)

	client := Chain(base)
	resp, err := client.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if resp.Content != "base" {
		t.Errorf("expected base passthrough, got %s", resp.Content)
	}
}

func TestUsageTotalTokens(t *testing.T) {
	u := Usage{PromptTokens: 120, CompletionTokens: 30}
	if u.TotalTokens() != 150 {
		t.Errorf("expected 150, got %d", u.TotalTokens())
	}
}

func TestNewCompletionRequestDefaults(t *testing.T) {
	req := NewCompletionRequest([]CompletionMessage{NewUserMessage("hi")})
	if req.MaxTokens != 4096 {
		t.Errorf("expected 4096 max tokens, got %d", req.MaxTokens)
	}
	if req.Temperature != TemperatureDefault {
		t.Errorf("expected default temperature, got %f", req.Temperature)
	}
	if req.Messages[0].Role != RoleUser {
		t.Errorf("expected user role")
	}
}
