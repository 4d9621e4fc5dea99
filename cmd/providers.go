package cmd

import (
	"context"
	"os"
	"strconv"
	"strings"
)

const (
	GeminiAPIKeyEnv     = "GEMINI_API_KEY"
	GoogleAPIKeyEnv     = "GOOGLE_API_KEY"
	OpenRouterAPIKeyEnv = "OPENROUTER_API_KEY"
)

// MetadataItem is one label/value cell of the report's parameter grid.
type MetadataItem struct {
	Label string
	Value string
}

// providerSpec describes everything that differs between the providers:
// flag defaults, credentials, context windows and report metadata.
type providerSpec struct {
	Name  string
	Title string

	DefaultModel       string
	DefaultTemperature float64
	DefaultMaxTokens   int
	DefaultPrompt      string
	DefaultSeed        *int

	// KeyEnv lists the environment variables searched for an API key.
	// Empty means the provider needs no key.
	KeyEnv []string

	ContextLimits       map[string]int
	DefaultContextLimit int
	// ContextFromFlag marks providers whose limit is the --context-size flag.
	ContextFromFlag bool

	New      func(ctx context.Context, opts RunOptions) (LLMProvider, error)
	Metadata func(opts RunOptions) []MetadataItem
}

func intPtr(v int) *int { return &v }

var geminiSpec = providerSpec{
	Name:               "gemini",
	Title:              "Gemini",
	DefaultModel:       "gemini-2.0-flash",
	DefaultTemperature: 0.7,
	DefaultMaxTokens:   100000,
	DefaultPrompt:      PromptEnhancedFewShot,
	KeyEnv:             []string{GeminiAPIKeyEnv, GoogleAPIKeyEnv},
	ContextLimits: map[string]int{
		"gemini-2.5-flash": 2000000,
		"gemini-2.5-pro":   2000000,
		"gemini-1.5-flash": 1000000,
		"gemini-1.5-pro":   2000000,
		"gemini-1.0-pro":   32768,
	},
	DefaultContextLimit: 2000000,
	New: func(ctx context.Context, opts RunOptions) (LLMProvider, error) {
		return NewGeminiProvider(ctx, opts.APIKey)
	},
	Metadata: func(opts RunOptions) []MetadataItem {
		return []MetadataItem{
			{"Thinking budget", optionalInt(opts.ThinkingBudgetPtr(), "model default")},
			{"Seed", optionalInt(opts.SeedPtr(), "random")},
		}
	},
}

var ollamaSpec = providerSpec{
	Name:               "ollama",
	Title:              "Ollama",
	DefaultModel:       "llama3.2",
	DefaultTemperature: 0.4,
	DefaultMaxTokens:   1500,
	DefaultPrompt:      PromptSimpleZeroShot,
	DefaultSeed:        intPtr(512),
	// Approximate windows of common Ollama models; advisory only.
	ContextLimits: map[string]int{
		"llama3.2":        131072,
		"llama3.2-vision": 131072,
		"llama4:scout":    131072,
		"llama4":          131072,
		"llama3.1":        131072,
		"llama3.1-vision": 131072,
		"gemma3:1b":       8192,
		"gemma3:2b":       8192,
		"gemma3:7b":       8192,
		"deepseek-r1":     32768,
		"deepseek-coder":  32768,
		"phi4":            32768,
		"mistral":         32768,
		"mixtral":         32768,
		"codellama":       32768,
		"qwq":             131072,
		"qwen":            32768,
		"yi":              32768,
	},
	DefaultContextLimit: 131072,
	ContextFromFlag:     true,
	New: func(ctx context.Context, opts RunOptions) (LLMProvider, error) {
		return NewOllamaProvider(opts.Host)
	},
	Metadata: func(opts RunOptions) []MetadataItem {
		return []MetadataItem{
			{"Seed", optionalInt(opts.SeedPtr(), "random")},
		}
	},
}

var openRouterSpec = providerSpec{
	Name:               "openrouter",
	Title:              "OpenRouter",
	DefaultModel:       "openai/gpt-4o",
	DefaultTemperature: 0.7,
	DefaultMaxTokens:   100000,
	DefaultPrompt:      PromptEnhancedFewShot,
	KeyEnv:             []string{OpenRouterAPIKeyEnv},
	ContextLimits: map[string]int{
		"openai/gpt-4o":                     128000,
		"openai/gpt-4o-mini":                128000,
		"openai/gpt-4-turbo":                128000,
		"openai/gpt-4":                      8192,
		"openai/gpt-3.5-turbo":              16385,
		"openai/gpt-3.5-turbo-16k":          16385,
		"anthropic/claude-3-5-sonnet":       200000,
		"anthropic/claude-3-opus":           200000,
		"anthropic/claude-3-haiku":          200000,
		"anthropic/claude-3-sonnet":         200000,
		"meta-llama/llama-3.1-8b-instruct":  8192,
		"meta-llama/llama-3.1-70b-instruct": 8192,
		"google/gemini-2.0-flash-exp":       1000000,
		"google/gemini-2.0-pro-exp":         2000000,
		"google/gemini-1.5-pro":             1000000,
		"google/gemini-1.5-flash":           1000000,
	},
	DefaultContextLimit: 128000,
	New: func(ctx context.Context, opts RunOptions) (LLMProvider, error) {
		return NewOpenRouterProvider(opts.APIKey, opts.SiteURL, opts.SiteName)
	},
	Metadata: func(opts RunOptions) []MetadataItem {
		var items []MetadataItem
		if opts.SiteName != "" {
			items = append(items, MetadataItem{"Site name", opts.SiteName})
		}
		if opts.SiteURL != "" {
			items = append(items, MetadataItem{"Site URL", opts.SiteURL})
		}
		return items
	},
}

var providerSpecs = map[string]providerSpec{
	geminiSpec.Name:     geminiSpec,
	ollamaSpec.Name:     ollamaSpec,
	openRouterSpec.Name: openRouterSpec,
}

func optionalInt(v *int, unset string) string {
	if v == nil {
		return unset
	}
	return strconv.Itoa(*v)
}

// ContextLimit returns the token window used for the context analysis.
func (s providerSpec) ContextLimit(opts RunOptions) int {
	if s.ContextFromFlag && opts.ContextSize > 0 {
		return opts.ContextSize
	}
	if limit, ok := s.ContextLimits[opts.Model]; ok {
		return limit
	}
	return s.DefaultContextLimit
}

// SuggestedContext returns the known window for model, if any.
func (s providerSpec) SuggestedContext(model string) (int, bool) {
	limit, ok := s.ContextLimits[model]
	return limit, ok
}

// Validate checks opts, then the options only this provider reads.
func (s providerSpec) Validate(opts RunOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if s.ContextFromFlag && opts.ContextSize <= 0 {
		return invalidf("--context-size must be positive, got %d", opts.ContextSize)
	}
	return nil
}

// ResolveAPIKey fills opts.APIKey from the environment when the flag is
// empty. It returns which source was used.
func (s providerSpec) ResolveAPIKey(opts *RunOptions) (string, error) {
	if len(s.KeyEnv) == 0 {
		return "", nil
	}
	if opts.APIKey != "" {
		return "command line", nil
	}
	for _, env := range s.KeyEnv {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			opts.APIKey = v
			return env, nil
		}
	}
	primary := s.KeyEnv[0]
	return "", invalidf(`No %s API key found!
Please either:
  1. Create a .env file with %s='your-api-key-here'
  2. Set the %s environment variable:
     export %s='your-api-key-here'
  3. Or provide it via command line:
     crosstalk-llm %s --api-key 'your-api-key-here'`, s.Title, primary, primary, primary, s.Name)
}

