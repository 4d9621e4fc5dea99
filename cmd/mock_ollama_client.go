package cmd

import (
	"context"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// MockOllamaClient is a mock implementation of OllamaClient for testing.
type MockOllamaClient struct {
	// Map of prompt snippets to mock replies
	MockResponses map[string]string
	// Default reply if no match is found
	DefaultResponse string
	// Available models to return from List()
	AvailableModels []string
	// PromptEvalCount and EvalCount are reported as token metrics.
	PromptEvalCount int
	EvalCount       int
	// ChatErr is returned from Chat when set.
	ChatErr error
	// Requests records every chat request received.
	Requests []*ollama.ChatRequest
}

// NewMockOllamaClient creates a new MockOllamaClient with default responses.
func NewMockOllamaClient() *MockOllamaClient {
	return &MockOllamaClient{
		MockResponses:   make(map[string]string),
		DefaultResponse: "This is a mock hypothesis for testing purposes.",
		AvailableModels: []string{"llama3.2:latest"},
	}
}

// Chat implements OllamaClient.Chat for the mock.
func (m *MockOllamaClient) Chat(ctx context.Context, req *ollama.ChatRequest, fn ollama.ChatResponseFunc) error {
	m.Requests = append(m.Requests, req)
	if m.ChatErr != nil {
		return m.ChatErr
	}

	// The user message carries the data files
	var content string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			content = msg.Content
		}
	}

	reply := m.DefaultResponse
	for key, response := range m.MockResponses {
		if strings.Contains(content, key) {
			reply = response
			break
		}
	}

	resp := ollama.ChatResponse{
		Model: req.Model,
		Message: ollama.Message{
			Role:    "assistant",
			Content: reply,
		},
		Done:       true,
		DoneReason: "stop",
	}
	resp.PromptEvalCount = m.PromptEvalCount
	resp.EvalCount = m.EvalCount
	return fn(resp)
}

// List implements OllamaClient.List for the mock.
func (m *MockOllamaClient) List(ctx context.Context) (*ollama.ListResponse, error) {
	models := make([]ollama.ListModelResponse, len(m.AvailableModels))
	for i, modelName := range m.AvailableModels {
		models[i] = ollama.ListModelResponse{
			Name:  modelName,
			Model: modelName,
		}
	}
	return &ollama.ListResponse{
		Models: models,
	}, nil
}
