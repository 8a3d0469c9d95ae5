package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/domain"
)

const DefaultAITimeout = 10 * time.Second

// Draft sources, used for logs and metrics only. Callers always get a plain string.
const (
	SourceTemplate = "template"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Orchestrator is the single entry point for review drafts. It chooses between
// the AI and template paths and never reports a failure to its caller.
type Orchestrator struct {
	mode     domain.AIMode
	renderer *Renderer
	drafter  domain.Drafter
	timeout  time.Duration
	logger   zerolog.Logger
}

type Option func(*Orchestrator)

func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires the renderer and, for AIAssisted, the drafter. An
// AIAssisted mode without a drafter behaves like TemplateOnly.
func NewOrchestrator(mode domain.AIMode, renderer *Renderer, drafter domain.Drafter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		mode:     normalizeMode(mode),
		renderer: renderer,
		drafter:  drafter,
		timeout:  DefaultAITimeout,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// normalizeMode maps nil and pointer variants onto the two value variants.
func normalizeMode(mode domain.AIMode) domain.AIMode {
	switch m := mode.(type) {
	case *domain.TemplateOnly:
		return domain.TemplateOnly{}
	case *domain.AIAssisted:
		if m == nil {
			return domain.TemplateOnly{}
		}
		return *m
	case nil:
		return domain.TemplateOnly{}
	}
	return mode
}

// GenerateReview returns a usable draft for the request. AI failures of any
// kind (network, status, empty text, bad JSON, timeout) fall back to templates.
func (o *Orchestrator) GenerateReview(ctx context.Context, req domain.DraftRequest) string {
	if req.Locale == "" {
		req.Locale = domain.LocaleEN
	}

	switch mode := o.mode.(type) {
	case domain.TemplateOnly:
		return o.template(req, SourceTemplate)
	case domain.AIAssisted:
		if o.drafter == nil {
			return o.template(req, SourceTemplate)
		}
		text, err := o.tryAI(ctx, req)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("provider", mode.Provider).
				Str("business", req.BusinessName).
				Msg("ai draft failed, falling back to templates")
			return o.template(req, SourceFallback)
		}
		observability.ObserveDraft(SourceAI)
		return text
	default:
		o.logger.Warn().Str("mode", fmt.Sprintf("%T", mode)).Msg("unknown AI mode, using templates")
		return o.template(req, SourceTemplate)
	}
}

func (o *Orchestrator) template(req domain.DraftRequest, source string) string {
	observability.ObserveDraft(source)
	return o.renderer.Render(req.BusinessName, req.Rating, req.Locale)
}

func (o *Orchestrator) tryAI(ctx context.Context, req domain.DraftRequest) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("drafter panic: %v", r)
		}
	}()

	text, err = o.drafter.Draft(ctx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}
