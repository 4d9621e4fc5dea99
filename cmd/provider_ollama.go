package cmd

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// OllamaProvider implements LLMProvider using the Ollama API.
type OllamaProvider struct {
	client OllamaClient
}

// NewOllamaProvider creates a new OllamaProvider talking to host.
// An empty host falls back to OLLAMA_HOST or the library default.
func NewOllamaProvider(host string) (*OllamaProvider, error) {
	client, err := NewRealOllamaClient(host)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return &OllamaProvider{client: client}, nil
}

// NewOllamaProviderFromClient creates an OllamaProvider from an existing OllamaClient.
// Used for testing with MockOllamaClient.
func NewOllamaProviderFromClient(client OllamaClient) *OllamaProvider {
	return &OllamaProvider{client: client}
}

// Chat implements LLMProvider.Chat using the Ollama Chat API.
func (o *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	stream := false
	options := map[string]any{
		"temperature": req.Temperature,
		"num_predict": req.MaxTokens,
		"num_ctx":     req.ContextSize,
	}
	if req.Seed != nil {
		options["seed"] = *req.Seed
	}
	chatReq := &ollama.ChatRequest{
		Model: req.Model,
		Messages: []ollama.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: options,
		Stream:  &stream,
	}

	var (
		text  strings.Builder
		final ollama.ChatResponse
	)
	err := o.client.Chat(ctx, chatReq, func(resp ollama.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	out := &ChatResponse{
		Text:         text.String(),
		FinishReason: final.DoneReason,
	}
	if final.PromptEvalCount > 0 || final.EvalCount > 0 {
		out.Usage = &TokenUsage{
			PromptTokens:     final.PromptEvalCount,
			CompletionTokens: final.EvalCount,
			TotalTokens:      final.PromptEvalCount + final.EvalCount,
		}
	}
	if final.TotalDuration > 0 {
		out.Diagnostics = append(out.Diagnostics,
			fmt.Sprintf("Load duration: %s", final.LoadDuration),
			fmt.Sprintf("Prompt eval duration: %s", final.PromptEvalDuration),
			fmt.Sprintf("Eval duration: %s", final.EvalDuration),
		)
	}
	if final.DoneReason != "" {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("Done reason: %s", final.DoneReason))
	}
	return out, nil
}

// Available implements LLMProvider.Available by checking the Ollama model list.
// A bare model name matches its ":latest" tag.
func (o *OllamaProvider) Available(ctx context.Context, model string) (bool, error) {
	response, err := o.client.List(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range response.Models {
		if m.Name == model || m.Name == model+":latest" {
			return true, nil
		}
	}
	return false, nil
}

// Name implements LLMProvider.Name.
func (o *OllamaProvider) Name() string {
	return "ollama"
}
