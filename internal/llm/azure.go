package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	"toolhub/pkg/logging"
)

type chatCompleter interface {
	GetChatCompletions(ctx context.Context, body azopenai.ChatCompletionsOptions, options *azopenai.GetChatCompletionsOptions) (azopenai.GetChatCompletionsResponse, error)
}

// AzureClient talks to an Azure OpenAI chat deployment.
type AzureClient struct {
	client     chatCompleter
	deployment string

	mu    sync.Mutex
	usage Usage
}

// NewAzureClient creates a client for deployment at endpoint using an API key.
func NewAzureClient(endpoint, apiKey, deployment string) (*AzureClient, error) {
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, ErrNotConfigured
	}
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}
	return &AzureClient{client: client, deployment: deployment}, nil
}

// Invoke sends prompt, preceded by systemPrompt when set, and returns the
// first choice.
func (c *AzureClient) Invoke(ctx context.Context, prompt, systemPrompt string, params Params) (*Response, error) {
	var messages []azopenai.ChatRequestMessageClassification
	if systemPrompt != "" {
		messages = append(messages, &azopenai.ChatRequestSystemMessage{
			Content: azopenai.NewChatRequestSystemMessageContent(systemPrompt),
		})
	}
	messages = append(messages, &azopenai.ChatRequestUserMessage{
		Content: azopenai.NewChatRequestUserMessageContent(prompt),
	})

	opts := azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(c.deployment),
		Messages:       messages,
	}
	if params.MaxTokens > 0 {
		opts.MaxTokens = to.Ptr(int32(params.MaxTokens))
	}
	if params.Temperature != nil {
		opts.Temperature = to.Ptr(float32(*params.Temperature))
	}

	resp, err := c.client.GetChatCompletions(ctx, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	usage := usageOf(resp.Usage)
	c.mu.Lock()
	c.usage = c.usage.Add(usage)
	c.mu.Unlock()

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return nil, fmt.Errorf("no completion received from LLM")
	}
	logging.Debug("LLM", "Completion used %d tokens", usage.TotalTokens)
	return &Response{Text: *resp.Choices[0].Message.Content, Usage: usage}, nil
}

// TotalUsage is the accumulated usage of every completion so far.
func (c *AzureClient) TotalUsage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

func usageOf(u *azopenai.CompletionsUsage) Usage {
	if u == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     int(deref(u.PromptTokens)),
		CompletionTokens: int(deref(u.CompletionTokens)),
		TotalTokens:      int(deref(u.TotalTokens)),
	}
}

func deref(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
