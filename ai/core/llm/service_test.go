package llm

import (
	"testing"
)

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(&Config{Provider: "openai"})
	if err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestNewServiceProviderDefaults(t *testing.T) {
	for _, provider := range []string{"openai", "deepseek", "ollama", "something-compatible"} {
		svc, err := NewService(&Config{Provider: provider, Model: "test-model"})
		if err != nil {
			t.Fatalf("NewService(%s): %v", provider, err)
		}
		if svc == nil {
			t.Fatalf("NewService(%s): nil service", provider)
		}
	}
}

func TestConvertMessages(t *testing.T) {
	messages := []Message{
		SystemPrompt("be helpful"),
		UserMessage("hi"),
		AssistantMessage("hello"),
		{Role: "tool", Content: "unknown role falls back to user"},
	}

	converted := convertMessages(messages)
	if len(converted) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(converted))
	}

	wantRoles := []string{"system", "user", "assistant", "user"}
	for i, want := range wantRoles {
		if converted[i].Role != want {
			t.Errorf("message %d: expected role %s, got %s", i, want, converted[i].Role)
		}
	}
	if converted[0].Content != "be helpful" {
		t.Errorf("content not preserved: %q", converted[0].Content)
	}
}
