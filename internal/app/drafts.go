package app

import (
	"context"

	"reviewpasta/internal/domain"
)

// ReviewGenerator is satisfied by *review.Orchestrator.
type ReviewGenerator interface {
	GenerateReview(ctx context.Context, req domain.DraftRequest) string
}

type DraftService struct {
	businesses *BusinessService
	gen        ReviewGenerator
}

func NewDraftService(b *BusinessService, g ReviewGenerator) *DraftService {
	return &DraftService{businesses: b, gen: g}
}

// Draft looks the business up and produces a review. The only error is the
// lookup's; draft generation itself cannot fail.
func (s *DraftService) Draft(ctx context.Context, slug string, rating float64, locale domain.Locale) (string, error) {
	b, err := s.businesses.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.gen.GenerateReview(ctx, domain.DraftRequest{
		BusinessName: b.Name,
		Location:     b.Location,
		Description:  b.Description,
		Rating:       rating,
		Locale:       locale,
	}), nil
}
