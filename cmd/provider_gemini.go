package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiModels is the part of the genai Models service this tool uses.
// *genai.Models satisfies it; tests substitute a fake.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiProvider implements LLMProvider using the Gemini API.
type GeminiProvider struct {
	models GeminiModels
}

// NewGeminiProvider creates a GeminiProvider backed by the Gemini Developer API.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("a Gemini API key is required (--api-key or %s)", GeminiAPIKeyEnv)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{models: client.Models}, nil
}

// NewGeminiProviderFromModels wraps an existing GeminiModels implementation.
func NewGeminiProviderFromModels(models GeminiModels) *GeminiProvider {
	return &GeminiProvider{models: models}
}

func generationConfig(req ChatRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.ThinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(*req.ThinkingBudget)),
		}
	}
	if req.Seed != nil {
		config.Seed = genai.Ptr(int32(*req.Seed))
	}
	return config
}

// Chat implements LLMProvider.Chat. The system prompt and the user content
// are sent as a single text content.
func (g *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	prompt := req.System + "\n\n" + req.User
	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(prompt), generationConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	out := &ChatResponse{
		Text:        resp.Text(),
		Diagnostics: candidateDiagnostics(resp),
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	if out.Text == "" {
		out.Diagnostics = append(out.Diagnostics, emptyReason(resp))
	}
	return out, nil
}

func candidateDiagnostics(resp *genai.GenerateContentResponse) []string {
	lines := []string{fmt.Sprintf("Number of candidates: %d", len(resp.Candidates))}
	for i, c := range resp.Candidates {
		if c == nil {
			continue
		}
		lines = append(lines,
			fmt.Sprintf("Candidate %d:", i),
			fmt.Sprintf("  Finish reason: %s", c.FinishReason),
		)
		if len(c.SafetyRatings) == 0 {
			lines = append(lines, "  Safety ratings: None or empty")
		} else {
			lines = append(lines, "  Safety ratings:")
			for _, r := range c.SafetyRatings {
				lines = append(lines, fmt.Sprintf("    Category: %s, Probability: %s", r.Category, r.Probability))
			}
		}
		if c.Content != nil && len(c.Content.Parts) > 0 {
			lines = append(lines, fmt.Sprintf("  Content parts: %d", len(c.Content.Parts)))
		} else {
			lines = append(lines, "  Content parts: None or empty")
		}
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		lines = append(lines, fmt.Sprintf("Prompt blocked: %s %s", pf.BlockReason, strings.TrimSpace(pf.BlockReasonMessage)))
	}
	return lines
}

func emptyReason(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "Reason: no candidates returned"
	}
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety:
		return "Reason: Content blocked by safety filters"
	case genai.FinishReasonMaxTokens:
		return "Reason: Response truncated due to max token limit"
	case genai.FinishReasonRecitation:
		return "Reason: Content blocked due to recitation concerns"
	default:
		return fmt.Sprintf("Reason: %s", reason)
	}
}

// Available implements LLMProvider.Available by looking the model up.
func (g *GeminiProvider) Available(ctx context.Context, model string) (bool, error) {
	name := model
	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}
	m, err := g.models.Get(ctx, name, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return m != nil, nil
}

func isNotFound(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusNotFound
	}
	return false
}

// Name implements LLMProvider.Name.
func (g *GeminiProvider) Name() string {
	return "gemini"
}
