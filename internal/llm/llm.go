// Package llm is the language model collaborator used by the llm.invoke
// capability.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by clients that have no backing model.
var ErrNotConfigured = errors.New("llm provider is not configured")

// Params tunes a single completion. Zero values use the provider defaults.
type Params struct {
	MaxTokens   int
	Temperature *float64
}

// Usage is the token accounting of one or more completions.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add returns u plus o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// Response is a completion.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Client produces completions.
type Client interface {
	Invoke(ctx context.Context, prompt, systemPrompt string, params Params) (*Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, prompt, systemPrompt string, params Params) (*Response, error)

// Invoke calls f.
func (f ClientFunc) Invoke(ctx context.Context, prompt, systemPrompt string, params Params) (*Response, error) {
	return f(ctx, prompt, systemPrompt, params)
}
