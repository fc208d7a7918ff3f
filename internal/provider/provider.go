package provider

import "context"

// Message is a single chat message sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest holds the parameters for one model query. Temperature
// is a pointer so zero is expressible; nil means the provider default.
type ChatRequest struct {
	Model            string
	Prompt           string
	SystemPrompt     string
	MaxTokens        int
	Temperature      *float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Float64 returns a pointer to v, for optional request fields.
func Float64(v float64) *float64 {
	return &v
}

// Messages builds the message list for the request, system prompt first.
func (r ChatRequest) Messages() []Message {
	messages := make([]Message, 0, 2)
	if r.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: r.SystemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: r.Prompt})
	return messages
}

// ChatResponse is the provider-independent view of a completion.
type ChatResponse struct {
	Text             string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	ID            string
	Name          string
	ContextLength int
}

// Provider defines the interface for model-serving APIs.
type Provider interface {
	CheckReady() error
	ListModels(ctx context.Context) ([]ModelInfo, error)
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
