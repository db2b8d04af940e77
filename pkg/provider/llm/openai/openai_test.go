package openai

import (
	"strings"
	"testing"

	"github.com/trainloop/repsim/pkg/provider/llm"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", "gpt-4o-mini"); err == nil {
		t.Fatal("expected error for empty api key, got nil")
	}
}

func TestNew_RequiresModel(t *testing.T) {
	if _, err := New("sk-test", ""); err == nil {
		t.Fatal("expected error for empty model, got nil")
	}
}

func TestName(t *testing.T) {
	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Name(); got != "openai/gpt-4o-mini" {
		t.Errorf("expected name openai/gpt-4o-mini, got %q", got)
	}
}

func TestBuildParams_SystemPromptFirst(t *testing.T) {
	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are a customer.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Hello!"},
			{Role: llm.RoleAssistant, Content: "Hi there."},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("expected first message to be the system prompt")
	}
	if params.Messages[1].OfUser == nil {
		t.Error("expected second message to be a user message")
	}
	if params.Messages[2].OfAssistant == nil {
		t.Error("expected third message to be an assistant message")
	}
}

func TestBuildParams_UnknownRole(t *testing.T) {
	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "narrator", Content: "meanwhile"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown role, got nil")
	}
	if !strings.Contains(err.Error(), "narrator") {
		t.Errorf("error should name the offending role, got: %v", err)
	}
}

func TestBuildParams_SamplingOptions(t *testing.T) {
	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params, err := p.buildParams(llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
		Temperature: 0.8,
		MaxTokens:   150,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := params.Temperature.Or(0); got != 0.8 {
		t.Errorf("expected temperature 0.8, got %v", got)
	}
	if got := params.MaxCompletionTokens.Or(0); got != 150 {
		t.Errorf("expected max completion tokens 150, got %d", got)
	}
}

func TestBuildParams_ZeroMeansUnset(t *testing.T) {
	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Temperature.Valid() {
		t.Error("expected temperature to be unset")
	}
	if params.MaxCompletionTokens.Valid() {
		t.Error("expected max completion tokens to be unset")
	}
}
