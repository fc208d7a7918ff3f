// Package openrouter implements the OpenRouter chat-completions provider.
package openrouter

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
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "mistralai/mistral-7b-instruct"
	defaultReferer = "https://ai-roast-machine.example.com"
	defaultTitle   = "AI Roast Machine"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultTopP        = 1.0
)

// Config configures a Client. Zero values fall back to defaults;
// the API key falls back to the OPENROUTER_API_KEY environment variable.
type Config struct {
	APIKey     string
	BaseURL    string
	Referer    string
	Title      string
	HTTPClient *http.Client
}

type Client struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	http    *http.Client
}

var _ provider.Provider = (*Client)(nil)

func init() {
	if err := provider.Register("openrouter", New()); err != nil {
		panic(err)
	}
}

// New returns a Client with default configuration.
func New() *Client {
	return NewClient(Config{})
}

// NewClient returns a Client for the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Referer == "" {
		cfg.Referer = defaultReferer
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		referer: cfg.Referer,
		title:   cfg.Title,
		http:    cfg.HTTPClient,
	}
}

func (c *Client) key() string {
	if c.apiKey != "" {
		return c.apiKey
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

func (c *Client) CheckReady() error {
	if c.key() == "" {
		return errors.New("OpenRouter API key not set (add OPENROUTER_API_KEY to your .env file)")
	}
	return nil
}

type chatRequest struct {
	Model            string             `json:"model"`
	Messages         []provider.Message `json:"messages"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Stream           bool               `json:"stream"`
	TopP             float64            `json:"top_p"`
	FrequencyPenalty float64            `json:"frequency_penalty"`
	PresencePenalty  float64            `json:"presence_penalty"`
}

type chatResponse struct {
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
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type modelsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
	} `json:"data"`
}

// Chat sends a single non-streaming completion request.
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

	payload, err := json.Marshal(chatRequest{
		Model:            req.Model,
		Messages:         req.Messages(),
		MaxTokens:        req.MaxTokens,
		Temperature:      temperature,
		Stream:           false,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	})
	if err != nil {
		return provider.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.postWithRetry(ctx, c.baseURL+"/chat/completions", payload)
	if err != nil {
		return provider.ChatResponse{}, err
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return provider.ChatResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != nil {
		return provider.ChatResponse{}, fmt.Errorf("OpenRouter API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return provider.ChatResponse{}, errors.New("no choices in OpenRouter response")
	}

	model := out.Model
	if model == "" {
		model = req.Model
	}
	return provider.ChatResponse{
		Text:             out.Choices[0].Message.Content,
		Model:            model,
		FinishReason:     out.Choices[0].FinishReason,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}

// ListModels fetches the model catalog.
func (c *Client) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	if err := c.CheckReady(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenRouter API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out modelsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal models: %w", err)
	}

	models := make([]provider.ModelInfo, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, provider.ModelInfo{ID: m.ID, Name: m.Name, ContextLength: m.ContextLength})
	}
	return models, nil
}

// postWithRetry retries transient failures (network errors, 429, 5xx)
// with exponential backoff.
func (c *Client) postWithRetry(ctx context.Context, url string, payload []byte) ([]byte, error) {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.key())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("HTTP-Referer", c.referer)
		req.Header.Set("X-Title", c.title)

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("call OpenRouter API: %w", err))
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read response: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("OpenRouter API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("OpenRouter API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
