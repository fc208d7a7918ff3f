// Package hugface implements the Hugging Face router chat-completions provider.
package hugface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"roastmachine/internal/provider"
)

const (
	defaultURL   = "https://router.huggingface.co/v1/chat/completions"
	defaultModel = "meta-llama/Llama-3.1-8B-Instruct"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultTopP        = 1.0
)

// Config configures a Client. The token falls back to HF_API_KEY.
type Config struct {
	Token      string
	URL        string
	HTTPClient *http.Client
}

type Client struct {
	token string
	url   string
	http  *http.Client
}

var _ provider.Provider = (*Client)(nil)

func init() {
	if err := provider.Register("hugface", New()); err != nil {
		panic(err)
	}
}

func New() *Client {
	return NewClient(Config{})
}

func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{token: cfg.Token, url: cfg.URL, http: cfg.HTTPClient}
}

func (c *Client) key() string {
	if c.token != "" {
		return c.token
	}
	return os.Getenv("HF_API_KEY")
}

func (c *Client) CheckReady() error {
	if c.key() == "" {
		return errors.New("Hugging Face token not set (add HF_API_KEY to your .env file)")
	}
	return nil
}

// ListModels returns a static list of router-served chat models.
// The router does not expose a catalog endpoint compatible with
// chat completions, so this mirrors the models the batteries target.
func (c *Client) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{
		{ID: "meta-llama/Llama-3.1-8B-Instruct", Name: "Llama 3.1 8B Instruct", ContextLength: 131072},
		{ID: "mistralai/Mistral-7B-Instruct-v0.3", Name: "Mistral 7B Instruct v0.3", ContextLength: 32768},
		{ID: "Qwen/Qwen2.5-7B-Instruct", Name: "Qwen2.5 7B Instruct", ContextLength: 32768},
		{ID: "deepseek-ai/DeepSeek-R1", Name: "DeepSeek R1", ContextLength: 65536},
		{ID: "openai-community/gpt2", Name: "GPT-2", ContextLength: 1024},
	}, nil
}

type hfChatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	TopP        float64            `json:"top_p"`
	Stream      bool               `json:"stream"`
}

type hfChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Chat sends a single non-streaming completion request to the router.
func (c *Client) Chat(ctx context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	if err := c.CheckReady(); err != nil {
		return provider.ChatResponse{}, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return provider.ChatResponse{}, errors.New("prompt is required")
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if req.TopP == 0 {
		req.TopP = defaultTopP
	}

	payload, err := json.Marshal(hfChatRequest{
		Model:       req.Model,
		Messages:    req.Messages(),
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
		TopP:        req.TopP,
		Stream:      false,
	})
	if err != nil {
		return provider.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))

	var out hfChatResponse
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.key())
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("call HF router: %w", err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read response: %w", err))
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("HF router error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HF router error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if err := json.Unmarshal(body, &out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	})
	if err != nil {
		return provider.ChatResponse{}, err
	}

	if len(out.Choices) == 0 {
		return provider.ChatResponse{}, errors.New("no choices in HF router response")
	}

	model := out.Model
	if model == "" {
		model = req.Model
	}
	return provider.ChatResponse{
		Text:             strings.TrimSpace(out.Choices[0].Message.Content),
		Model:            model,
		FinishReason:     out.Choices[0].FinishReason,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}
