package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeforge/internal/logging"
)

// GeminiClient implements Client using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed oracle client.
func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends a prompt and returns the completion text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	timer := logging.StartTimer(logging.CategoryOracle, "Gemini generate")
	defer timer.Stop()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1), // low temperature for structured output
	}
	if wantJSON {
		cfg.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}

	logging.OracleDebug("Gemini returned %d bytes (json=%v)", len(text), wantJSON)
	return strings.TrimSpace(text), nil
}

// Model returns the model name in use.
func (c *GeminiClient) Model() string {
	return c.model
}
