package cmd

import (
	"context"
	"strings"
)

// MockLLMProvider is a mock implementation of LLMProvider for testing.
type MockLLMProvider struct {
	// MockResponses maps prompt snippets to mock replies.
	MockResponses map[string]string
	// DefaultResponse is returned when no matching snippet is found.
	DefaultResponse string
	// ModelAvailable controls the return value of Available().
	ModelAvailable bool
	// Usage is attached to every reply when set.
	Usage *TokenUsage
	// Err makes Chat fail.
	Err error
	// Requests records every chat request received.
	Requests []ChatRequest
}

// NewMockLLMProvider creates a new MockLLMProvider with default settings.
func NewMockLLMProvider() *MockLLMProvider {
	return &MockLLMProvider{
		MockResponses:   make(map[string]string),
		DefaultResponse: "This is a mock hypothesis for testing purposes.",
		ModelAvailable:  true,
	}
}

// Chat implements LLMProvider.Chat for the mock.
func (m *MockLLMProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	text := m.DefaultResponse
	for key, response := range m.MockResponses {
		if strings.Contains(req.User, key) {
			text = response
			break
		}
	}
	return &ChatResponse{Text: text, FinishReason: "stop", Usage: m.Usage}, nil
}

// Available implements LLMProvider.Available for the mock.
func (m *MockLLMProvider) Available(ctx context.Context, model string) (bool, error) {
	return m.ModelAvailable, nil
}

// Name implements LLMProvider.Name.
func (m *MockLLMProvider) Name() string {
	return "mock"
}
