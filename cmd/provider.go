package cmd

import (
	"context"
	"fmt"
)

// LLMProvider defines a provider-agnostic interface for LLM operations.
// Implementations include Gemini, Ollama and OpenRouter.
type LLMProvider interface {
	// Chat sends a single non-streaming chat request and returns the reply.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Available checks if the configured model is accessible.
	Available(ctx context.Context, model string) (bool, error)
	// Name returns the provider name used in file names and logs.
	Name() string
}

// ChatRequest carries everything a provider needs for one completion.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// Seed is nil when the provider should pick one.
	Seed *int
	// ThinkingBudget is nil for the model default. Gemini only.
	ThinkingBudget *int
	// ContextSize is the context window requested from Ollama.
	ContextSize int
}

// ChatResponse is the provider-neutral reply.
type ChatResponse struct {
	Text         string
	FinishReason string
	Usage        *TokenUsage
	// Diagnostics are provider-specific lines printed under "Response Diagnostics".
	Diagnostics []string
}

// TokenUsage holds the token counts a provider reported, if any.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// APIError is a request a provider answered with a failure.
// StatusCode is zero when the failure came in a 200 response body.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}
