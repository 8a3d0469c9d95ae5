package aidraft

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"

	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini drafts reviews with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Draft(ctx context.Context, req domain.DraftRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](DefaultTemperature),
		MaxOutputTokens: DefaultMaxTokens,
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(review.BuildPrompt(req)), cfg)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			observability.ObserveExternal("gemini", "generate_content", apiErr.Code, time.Since(start))
			return "", &domain.UpstreamHTTPError{Status: apiErr.Code, Body: apiErr.Message}
		}
		observability.ObserveExternal("gemini", "generate_content", 0, time.Since(start))
		return "", errors.Wrap(err, "gemini generate")
	}
	observability.ObserveExternal("gemini", "generate_content", 200, time.Since(start))

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}
