package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"roastmachine/internal/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
}

func TestCheckReadyRequiresKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	client := NewClient(Config{})
	if err := client.CheckReady(); err == nil {
		t.Fatalf("expected error without API key")
	}

	t.Setenv("OPENROUTER_API_KEY", "from-env")
	if err := client.CheckReady(); err != nil {
		t.Fatalf("env key should satisfy readiness: %v", err)
	}
}

func TestChatSendsDefaultsAndHeaders(t *testing.T) {
	var captured chatRequest
	var referer, title, auth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": captured.Model,
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "pong"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 2},
		})
	}))

	resp, err := client.Chat(context.Background(), provider.ChatRequest{Prompt: "ping"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if captured.Model != defaultModel {
		t.Fatalf("expected default model, got %s", captured.Model)
	}
	if captured.MaxTokens != 1000 || captured.Temperature != 0.7 || captured.TopP != 1.0 {
		t.Fatalf("unexpected defaults: %+v", captured)
	}
	if captured.Stream {
		t.Fatalf("streaming must be disabled")
	}
	if referer != defaultReferer || title != defaultTitle {
		t.Fatalf("missing attribution headers: %q %q", referer, title)
	}
	if auth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if resp.Text != "pong" || resp.FinishReason != "stop" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.PromptTokens != 5 || resp.CompletionTokens != 2 {
		t.Fatalf("unexpected usage: %+v", resp)
	}
}

func TestChatSendsExplicitZeroTemperature(t *testing.T) {
	var captured chatRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))

	_, err := client.Chat(context.Background(), provider.ChatRequest{
		Prompt:      "ping",
		Temperature: provider.Float64(0),
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if captured.Temperature != 0 {
		t.Fatalf("temperature 0 must be sent as-is, got %f", captured.Temperature)
	}
}

func TestChatIncludesSystemPrompt(t *testing.T) {
	var captured chatRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))

	_, err := client.Chat(context.Background(), provider.ChatRequest{
		Prompt:       "question",
		SystemPrompt: "answer fairly",
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("system message missing: %+v", captured.Messages)
	}
}

func TestChatRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "recovered"}},
			},
		})
	}))

	resp, err := client.Chat(context.Background(), provider.ChatRequest{Prompt: "ping"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Text != "recovered" {
		t.Fatalf("unexpected response: %q", resp.Text)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestChatDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))

	_, err := client.Chat(context.Background(), provider.ChatRequest{Prompt: "ping"})
	if err == nil {
		t.Fatalf("expected error on 401")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("client errors must not retry, got %d calls", calls)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model offline"}}`))
	}))

	_, err := client.Chat(context.Background(), provider.ChatRequest{Prompt: "ping"})
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestChatRejectsEmptyPrompt(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	if _, err := client.Chat(context.Background(), provider.ChatRequest{}); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data": [
			{"id": "openai/gpt-4", "name": "GPT-4", "context_length": 8192},
			{"id": "mistralai/mistral-7b-instruct", "name": "Mistral 7B", "context_length": 32768}
		]}`))
	}))

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].ID != "openai/gpt-4" || models[1].ContextLength != 32768 {
		t.Fatalf("unexpected models: %+v", models)
	}
}
