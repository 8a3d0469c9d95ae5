package aidraft

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
)

const (
	DefaultOpenRouterBase  = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "openrouter/auto"
	DefaultTemperature     = 0.8
	DefaultMaxTokens       = 100

	appTitle = "ReviewPasta"
)

// OpenRouter drafts reviews through an OpenAI-compatible chat-completions
// endpoint. One attempt per call: the orchestrator owns the fallback.
type OpenRouter struct {
	base    string
	hc      *http.Client
	key     string
	model   string
	referer string
	rl      *rate.Limiter
}

type OpenRouterConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Referer string // public origin, sent as HTTP-Referer
	RPS     int
}

func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterBase
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenRouterModel
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	return &OpenRouter{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		key:     cfg.APIKey,
		model:   cfg.Model,
		referer: cfg.Referer,
		rl:      rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenRouter) Draft(ctx context.Context, req domain.DraftRequest) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: review.BuildPrompt(req)}},
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.key)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "reviewpasta/1.0")
	httpReq.Header.Set("X-Title", appTitle)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		observability.ObserveExternal("openrouter", "chat_completions", 0, time.Since(start))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrap(err, "openrouter request")
	}
	defer resp.Body.Close()
	observability.ObserveExternal("openrouter", "chat_completions", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &domain.UpstreamHTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode completion")
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", domain.ErrEmptyCompletion
	}
	text := strings.TrimSpace(*out.Choices[0].Message.Content)
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}
