package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultOpenRouterBaseURL is the OpenAI-compatible endpoint root of OpenRouter.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// ErrNoChoices is returned when a completion response carries no choices.
var ErrNoChoices = &APIError{Provider: "openrouter", Message: "response contained no choices"}

// OpenRouterProvider implements LLMProvider using the OpenRouter chat completions API.
type OpenRouterProvider struct {
	apiKey   string
	baseURL  string
	siteURL  string
	siteName string
	client   *http.Client
}

// NewOpenRouterProvider creates a new OpenRouterProvider.
// OPENROUTER_BASE_URL overrides the default endpoint.
func NewOpenRouterProvider(apiKey, siteURL, siteName string) (*OpenRouterProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("an OpenRouter API key is required (--api-key or %s)", OpenRouterAPIKeyEnv)
	}
	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	return &OpenRouterProvider{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		siteURL:  siteURL,
		siteName: siteName,
		client:   &http.Client{},
	}, nil
}

type openRouterChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Seed        *int                `json:"seed,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openRouterChoice `json:"choices"`
	Usage   *openRouterUsage   `json:"usage,omitempty"`
	Error   *openRouterError   `json:"error,omitempty"`
}

type openRouterChoice struct {
	Message      openRouterMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type openRouterUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openRouterError struct {
	Code    any    `json:"code,omitempty"`
	Message string `json:"message"`
}

type openRouterModelList struct {
	Data []openRouterModel `json:"data"`
}

type openRouterModel struct {
	ID            string `json:"id"`
	ContextLength int    `json:"context_length"`
}

func (o *OpenRouterProvider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	// Optional attribution headers for openrouter.ai rankings
	if o.siteURL != "" {
		req.Header.Set("HTTP-Referer", o.siteURL)
	}
	if o.siteName != "" {
		req.Header.Set("X-Title", o.siteName)
	}
}

// Chat implements LLMProvider.Chat using the chat completions endpoint.
func (o *OpenRouterProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	reqBody := openRouterChatRequest{
		Model: req.Model,
		Messages: []openRouterMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Seed:        req.Seed,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	o.setHeaders(httpReq)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter API request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: "openrouter", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var chatResp openRouterChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, &APIError{Provider: "openrouter", Message: chatResp.Error.Message}
	}

	if len(chatResp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := chatResp.Choices[0]
	out := &ChatResponse{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	if chatResp.Usage != nil {
		out.Usage = &TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		}
	}
	if chatResp.ID != "" {
		out.Diagnostics = append(out.Diagnostics, "Generation id: "+chatResp.ID)
	}
	if chatResp.Model != "" {
		out.Diagnostics = append(out.Diagnostics, "Routed model: "+chatResp.Model)
	}
	if choice.FinishReason != "" {
		out.Diagnostics = append(out.Diagnostics, "Finish reason: "+choice.FinishReason)
	}
	return out, nil
}

// Available implements LLMProvider.Available by checking the models endpoint.
func (o *OpenRouterProvider) Available(ctx context.Context, model string) (bool, error) {
	url := o.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	o.setHeaders(req)

	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("openrouter API request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	var modelList openRouterModelList
	if err := json.Unmarshal(respBody, &modelList); err != nil {
		return false, fmt.Errorf("failed to parse models response: %w", err)
	}

	for _, m := range modelList.Data {
		if m.ID == model {
			return true, nil
		}
	}
	return false, nil
}

// Name implements LLMProvider.Name.
func (o *OpenRouterProvider) Name() string {
	return "openrouter"
}
