package native

import (
	"context"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/llm"
)

type llmArgs struct {
	Prompt       string   `json:"prompt" jsonschema:"required" jsonschema_description:"User prompt" validate:"required"`
	SystemPrompt string   `json:"systemPrompt,omitempty" jsonschema_description:"Instructions sent before the prompt"`
	MaxTokens    int      `json:"maxTokens,omitempty" jsonschema_description:"Upper bound on generated tokens" validate:"min=0,max=128000"`
	Temperature  *float64 `json:"temperature,omitempty" jsonschema_description:"Sampling temperature" validate:"omitempty,min=0,max=2"`
}

func llmInvoke(client llm.Client) (capability.Definition, error) {
	return define(spec{
		Type:         "llm.invoke",
		Category:     CategoryAI,
		Label:        "LLM",
		Description:  "Send a prompt to the configured language model",
		Icon:         "brain",
		Runtime:      capability.RuntimeLLM,
		Requirements: &capability.Requirements{Provider: LLMProvider},
	}, func(ctx context.Context, args llmArgs) (map[string]any, error) {
		if client == nil {
			return nil, api.Wrap(api.CodeDependencyUnavailable, llm.ErrNotConfigured, "llm.invoke unavailable")
		}
		resp, err := client.Invoke(ctx, args.Prompt, args.SystemPrompt, llm.Params{
			MaxTokens:   args.MaxTokens,
			Temperature: args.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": resp.Text, "usage": resp.Usage}, nil
	})
}
