// Package mock implements an offline provider with canned responses,
// used by tests and as a fallback when no API key is configured.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roastmachine/internal/provider"
)

type Client struct {
	// Delay simulates generation latency. Zero means no delay.
	Delay time.Duration
}

var _ provider.Provider = (*Client)(nil)

func init() {
	if err := provider.Register("mock", New()); err != nil {
		panic(err)
	}
}

func New() *Client {
	return &Client{Delay: 10 * time.Millisecond}
}

func (c *Client) CheckReady() error {
	return nil
}

func (c *Client) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{
		{ID: "mock-gpt2", Name: "Mock GPT-2", ContextLength: 1024},
		{ID: "mock-distilgpt2", Name: "Mock DistilGPT-2", ContextLength: 1024},
		{ID: "mock-chat", Name: "Mock Chat", ContextLength: 4096},
	}, nil
}

// Canned responses matched against prompt keywords, in order.
var responses = []struct {
	keyword string
	text    string
}{
	{"hello", "Hello! How can I assist you today?"},
	{"what", "That's an interesting question. Let me think about it..."},
	{"explain", "Let me explain this concept in simple terms..."},
	{"write", "Here's a creative piece I've written for you..."},
	{"how", "Here are the steps to accomplish that task..."},
}

func (c *Client) Chat(ctx context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return provider.ChatResponse{}, fmt.Errorf("prompt is required")
	}

	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return provider.ChatResponse{}, ctx.Err()
		}
	}

	model := req.Model
	if model == "" {
		model = "mock-chat"
	}

	text := cannedResponse(req.Prompt, model)
	return provider.ChatResponse{
		Text:         text,
		Model:        model,
		FinishReason: "stop",
	}, nil
}

func cannedResponse(prompt, model string) string {
	lower := strings.ToLower(prompt)
	for _, canned := range responses {
		if strings.Contains(lower, canned.keyword) {
			return prompt + "\n\n" + canned.text
		}
	}
	return fmt.Sprintf("%s [Mock response: this is a simulated response from %s]", prompt, model)
}
