package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	ollama "github.com/ollama/ollama/api"
)

// OllamaClient defines the subset of the Ollama API this tool calls.
// This allows us to mock the client for testing purposes.
type OllamaClient interface {
	Chat(ctx context.Context, req *ollama.ChatRequest, fn ollama.ChatResponseFunc) error
	List(ctx context.Context) (*ollama.ListResponse, error)
}

// RealOllamaClient is a wrapper around the actual Ollama client that implements OllamaClient.
type RealOllamaClient struct {
	client *ollama.Client
}

// NewRealOllamaClient creates a client for host, or from OLLAMA_HOST when host is empty.
func NewRealOllamaClient(host string) (*RealOllamaClient, error) {
	if host == "" {
		client, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		return &RealOllamaClient{client: client}, nil
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: expected scheme://host:port", host)
	}
	return &RealOllamaClient{client: ollama.NewClient(base, http.DefaultClient)}, nil
}

// Chat implements OllamaClient.Chat
func (r *RealOllamaClient) Chat(ctx context.Context, req *ollama.ChatRequest, fn ollama.ChatResponseFunc) error {
	return r.client.Chat(ctx, req, fn)
}

// List implements OllamaClient.List
func (r *RealOllamaClient) List(ctx context.Context) (*ollama.ListResponse, error) {
	return r.client.List(ctx)
}
