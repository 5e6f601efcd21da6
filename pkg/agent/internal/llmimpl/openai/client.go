// Package openai provides the OpenAI client implementation using the
// official OpenAI Go package.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"jobpilot/pkg/agent/llm"
)

// Client wraps the official OpenAI Go client to implement llm.LLMClient.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a raw OpenAI client; middleware is applied at a higher
// level.
func NewClient(apiKey, model string) llm.LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: client,
		model:  model,
	}
}

// flattenMessages combines the conversation into a single input string for
// the Responses API.
func flattenMessages(messages []llm.CompletionMessage) string {
	var input string
	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			input += fmt.Sprintf("System: %s\n\n", msg.Content)
		case llm.RoleAssistant:
			input += fmt.Sprintf("Assistant: %s\n\n", msg.Content)
		default:
			input += msg.Content + "\n\n"
		}
	}
	return input
}

// Complete implements the llm.LLMClient interface using the Responses API.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, fmt.Errorf("message list cannot be empty")
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(int64(in.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(flattenMessages(in.Messages))},
	}

	if len(in.Tools) > 0 {
		toolParams := make([]responses.ToolUnionParam, len(in.Tools))
		for i := range in.Tools {
			tool := &in.Tools[i]

			properties := make(map[string]any)
			for name, prop := range tool.InputSchema.Properties {
				propMap := map[string]any{"type": prop.Type}
				if prop.Description != "" {
					propMap["description"] = prop.Description
				}
				if len(prop.Enum) > 0 {
					propMap["enum"] = prop.Enum
				}
				properties[name] = propMap
			}

			toolParams[i] = responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters: openai.FunctionParameters(map[string]any{
						"type":       "object",
						"properties": properties,
						"required":   tool.InputSchema.Required,
					}),
				},
			}
		}
		params.Tools = toolParams
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("openai completion failed: %w", err)
	}
	if resp == nil {
		return llm.CompletionResponse{}, fmt.Errorf("received empty response from OpenAI API")
	}

	var toolCalls []llm.ToolCall
	for i := range resp.Output {
		item := &resp.Output[i]
		if item.Type != "function_call" {
			continue
		}
		funcCall := item.AsFunctionCall()

		var args map[string]any
		if funcCall.Arguments != "" {
			if err := json.Unmarshal([]byte(funcCall.Arguments), &args); err != nil {
				// Malformed arguments: skip the call rather than fail the run.
				continue
			}
		}
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:         funcCall.ID,
			Name:       funcCall.Name,
			Parameters: args,
		})
	}

	return llm.CompletionResponse{
		Content:   resp.OutputText(),
		ToolCalls: toolCalls,
		Usage: &llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// GetModelName returns the model name for this client.
func (c *Client) GetModelName() string {
	return c.model
}
