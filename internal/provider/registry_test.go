package provider_test

import (
	"errors"
	"testing"

	"roastmachine/internal/provider"

	_ "roastmachine/internal/provider/hugface"
	_ "roastmachine/internal/provider/mock"
	_ "roastmachine/internal/provider/openrouter"
)

func TestBuiltinProvidersRegistered(t *testing.T) {
	for _, name := range []string{"openrouter", "hugface", "mock"} {
		if _, err := provider.Get(name); err != nil {
			t.Fatalf("provider %s not registered: %v", name, err)
		}
	}

	names := provider.Names()
	if len(names) < 3 {
		t.Fatalf("expected at least 3 providers, got %v", names)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	if _, err := provider.Get("  MOCK  "); err != nil {
		t.Fatalf("lookup should trim and lowercase: %v", err)
	}
}

func TestGetUnknownProvider(t *testing.T) {
	if _, err := provider.Get("does-not-exist"); !errors.Is(err, provider.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
	if _, err := provider.Get(""); !errors.Is(err, provider.ErrProviderInvalid) {
		t.Fatalf("expected ErrProviderInvalid, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	if err := provider.Register("mock", nil); err == nil {
		t.Fatalf("nil provider should be rejected")
	}
	p, err := provider.Get("mock")
	if err != nil {
		t.Fatalf("get mock: %v", err)
	}
	if err := provider.Register("mock", p); !errors.Is(err, provider.ErrProviderRegistered) {
		t.Fatalf("expected ErrProviderRegistered, got %v", err)
	}
}

func TestDefaultName(t *testing.T) {
	if provider.DefaultName() != "openrouter" {
		t.Fatalf("unexpected default provider: %s", provider.DefaultName())
	}
}

func TestChatRequestMessagesOrder(t *testing.T) {
	req := provider.ChatRequest{
		Prompt:       "hello",
		SystemPrompt: "be nice",
	}
	messages := req.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || messages[0].Content != "be nice" {
		t.Fatalf("system message should come first: %+v", messages[0])
	}
	if messages[1].Role != "user" || messages[1].Content != "hello" {
		t.Fatalf("unexpected user message: %+v", messages[1])
	}

	bare := provider.ChatRequest{Prompt: "hi"}
	if got := bare.Messages(); len(got) != 1 || got[0].Role != "user" {
		t.Fatalf("unexpected messages without system prompt: %+v", got)
	}
}
