package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	got  azopenai.ChatCompletionsOptions
	resp azopenai.GetChatCompletionsResponse
	err  error
}

func (f *fakeCompleter) GetChatCompletions(_ context.Context, body azopenai.ChatCompletionsOptions, _ *azopenai.GetChatCompletionsOptions) (azopenai.GetChatCompletionsResponse, error) {
	f.got = body
	return f.resp, f.err
}

func completion(text string, prompt, completionTokens int32) azopenai.GetChatCompletionsResponse {
	var resp azopenai.GetChatCompletionsResponse
	resp.Choices = []azopenai.ChatChoice{{
		Message: &azopenai.ChatResponseMessage{Content: to.Ptr(text)},
	}}
	resp.Usage = &azopenai.CompletionsUsage{
		PromptTokens:     to.Ptr(prompt),
		CompletionTokens: to.Ptr(completionTokens),
		TotalTokens:      to.Ptr(prompt + completionTokens),
	}
	return resp
}

func TestNewAzureClient_RequiresSettings(t *testing.T) {
	_, err := NewAzureClient("", "key", "gpt")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewAzureClient("https://example.openai.azure.com", "", "gpt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAzureClient_Invoke(t *testing.T) {
	fake := &fakeCompleter{resp: completion("bonjour", 12, 3)}
	c := &AzureClient{client: fake, deployment: "gpt-4o"}

	temp := 0.2
	resp, err := c.Invoke(context.Background(), "translate hello", "you translate to French", Params{MaxTokens: 64, Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "bonjour", resp.Text)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}, resp.Usage)

	assert.Equal(t, "gpt-4o", *fake.got.DeploymentName)
	assert.Len(t, fake.got.Messages, 2)
	assert.Equal(t, int32(64), *fake.got.MaxTokens)
	assert.InDelta(t, 0.2, float64(*fake.got.Temperature), 1e-6)

	_, err = c.Invoke(context.Background(), "again", "", Params{})
	require.NoError(t, err)
	assert.Len(t, fake.got.Messages, 1)
	assert.Nil(t, fake.got.MaxTokens)
	assert.Equal(t, 30, c.TotalUsage().TotalTokens)
}

func TestAzureClient_Errors(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("429 too many requests")}
	c := &AzureClient{client: fake, deployment: "gpt-4o"}

	_, err := c.Invoke(context.Background(), "hi", "", Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	fake.err = nil
	fake.resp = azopenai.GetChatCompletionsResponse{}
	_, err = c.Invoke(context.Background(), "hi", "", Params{})
	assert.EqualError(t, err, "no completion received from LLM")
}

func TestClientFunc(t *testing.T) {
	var c Client = ClientFunc(func(_ context.Context, prompt, _ string, _ Params) (*Response, error) {
		return &Response{Text: prompt}, nil
	})
	resp, err := c.Invoke(context.Background(), "ping", "", Params{})
	require.NoError(t, err)
	assert.Equal(t, "ping", resp.Text)
}
