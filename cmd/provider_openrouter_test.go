package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("OPENROUTER_BASE_URL", server.URL+"/api/v1/")

	provider, err := NewOpenRouterProvider("sk-test", "https://example.org", "Crosstalk")
	require.NoError(t, err)
	return provider
}

func TestOpenRouterProviderChat(t *testing.T) {
	var got openRouterChatRequest
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://example.org", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Crosstalk", r.Header.Get("X-Title"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "gen-1",
			"model": "openai/gpt-4o-2024-08-06",
			"choices": [{"message": {"role": "assistant", "content": "Hypothesis 1"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	seed := 7
	resp, err := provider.Chat(context.Background(), ChatRequest{
		Model:       "openai/gpt-4o",
		System:      "sys",
		User:        "user",
		Temperature: 0.7,
		MaxTokens:   100000,
		Seed:        &seed,
	})
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", got.Model)
	assert.Equal(t, []openRouterMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "user"}}, got.Messages)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, 100000, got.MaxTokens)
	require.NotNil(t, got.Seed)
	assert.Equal(t, 7, *got.Seed)

	assert.Equal(t, "Hypothesis 1", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Contains(t, resp.Diagnostics, "Routed model: openai/gpt-4o-2024-08-06")
}

func TestOpenRouterProviderChatFailures(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"non-200", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, "status 401"},
		{"error object", http.StatusOK, `{"error":{"message":"Model not found"}}`, "Model not found"},
		{"malformed body", http.StatusOK, `not json`, "failed to parse response"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := provider.Chat(context.Background(), ChatRequest{Model: "m"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestOpenRouterProviderErrorsAreTyped(t *testing.T) {
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "upstream failure")
	})
	_, err := provider.Chat(context.Background(), ChatRequest{Model: "m"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream failure", apiErr.Message)
	assert.Equal(t, "*cmd.APIError", errorTypeName(err))
}

func TestOpenRouterProviderNoChoices(t *testing.T) {
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"gen-2","choices":[]}`)
	})
	_, err := provider.Chat(context.Background(), ChatRequest{Model: "m"})
	assert.True(t, errors.Is(err, ErrNoChoices))
}

func TestOpenRouterProviderAvailable(t *testing.T) {
	provider := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/models", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"id":"openai/gpt-4o","context_length":128000},{"id":"anthropic/claude-3.5-sonnet"}]}`)
	})
	ctx := context.Background()

	ok, err := provider.Available(ctx, "openai/gpt-4o")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = provider.Available(ctx, "openai/gpt-5-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "openrouter", provider.Name())
}

func TestNewOpenRouterProviderRequiresKey(t *testing.T) {
	_, err := NewOpenRouterProvider("", "", "")
	assert.Error(t, err)
}
