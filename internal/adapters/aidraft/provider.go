package aidraft

import (
	"context"

	"github.com/cockroachdb/errors"

	"reviewpasta/internal/domain"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// New builds the drafter for an AI mode. TemplateOnly has no drafter and
// returns nil without error.
func New(ctx context.Context, mode domain.AIMode, baseURL, referer string, rps int) (domain.Drafter, error) {
	ai, ok := mode.(domain.AIAssisted)
	if !ok {
		return nil, nil
	}
	switch ai.Provider {
	case "", ProviderOpenRouter:
		c, err := NewOpenRouter(OpenRouterConfig{
			BaseURL: baseURL,
			APIKey:  ai.Credential,
			Model:   ai.Model,
			Referer: referer,
			RPS:     rps,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderGemini:
		g, err := NewGemini(ctx, ai.Credential, ai.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, errors.Newf("unknown AI provider %q", ai.Provider)
	}
}
