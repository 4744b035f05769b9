// Package oracle wraps the external text-generation service. The service
// is treated as untrusted: callers receive raw text and must decode it
// defensively, even when JSON output was requested.
package oracle

import (
	"context"
	"fmt"

	"codeforge/internal/config"
)

// Client is the interface to a text-generation provider.
type Client interface {
	// Generate sends a prompt and returns the raw completion text.
	// wantJSON asks the provider for JSON output, but the result must
	// still be treated as possibly malformed text.
	Generate(ctx context.Context, prompt string, wantJSON bool) (string, error)
}

// NewFromConfig builds the provider named in the configuration.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return NewGeminiClient(cfg.LLM.APIKey, cfg.LLM.Model)
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.GetLLMTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.LLM.Provider)
	}
}
