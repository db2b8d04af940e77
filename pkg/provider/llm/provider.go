// Package llm defines the chat-completion provider abstraction used by the
// dialogue and evaluation pipelines.
//
// Providers are intentionally small: the simulator only ever needs a single
// blocking completion per turn, so there is no streaming or tool-calling
// surface. Implementations live in subpackages (openai, anyllm) and a test
// double lives in mock.
//
// Implementors must be safe for concurrent use.
package llm

import "context"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message exchanged with a model.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string
	// Content is the message text.
	Content string
}

// CompletionRequest carries everything a provider needs for one completion.
type CompletionRequest struct {
	// SystemPrompt is prepended as a system message when non-empty.
	SystemPrompt string
	// Messages is the conversation so far, oldest first.
	Messages []Message
	// Temperature controls sampling randomness. Zero means provider default.
	Temperature float64
	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// Usage reports token consumption for a completion. Counts are in the
// backend's native token unit and may differ between providers for the same
// text.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is the result of a completion call.
type CompletionResponse struct {
	// Content is the generated text.
	Content string
	// Usage is token accounting, zero-valued when the backend omits it.
	Usage Usage
}

// Provider generates chat completions.
type Provider interface {
	// Complete performs a blocking chat completion. It must honor ctx
	// cancellation and return a non-nil response on nil error.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name identifies the provider for logging and failover reporting,
	// e.g. "openai" or "anyllm/groq".
	Name() string
}
