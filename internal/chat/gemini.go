package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/hyperjump/kiku/internal/models"
)

// GeminiSynthesizer answers prompts with the Gemini API.
type GeminiSynthesizer struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiSynthesizer creates a synthesizer for the given model (defaults
// to gemini-2.5-flash) at the given sampling temperature.
func NewGeminiSynthesizer(ctx context.Context, apiKey, model string, temperature float32) (*GeminiSynthesizer, error) {
	if !ValidateAPIKey(apiKey) {
		return nil, models.Errorf(models.KindInvalidCredentials, "malformed API key")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiSynthesizer{client: client, model: model, temperature: temperature}, nil
}

// Synthesize sends the prompt and returns the model's answer text.
func (s *GeminiSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.temperature),
	})
	if err != nil {
		return "", classifyProviderError(err)
	}
	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", models.Errorf(models.KindProviderFailure, "empty response from %s", s.model)
	}
	return answer, nil
}

// classifyProviderError assigns the error kind at the provider boundary
// based on the API status code, never on message text.
func classifyProviderError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return models.NewError(models.KindInvalidCredentials, err)
		}
	}
	return models.NewError(models.KindProviderFailure, err)
}
