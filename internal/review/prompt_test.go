package review_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
)

func TestBuildPrompt(t *testing.T) {
	desc, loc := "artisan bakery", " Bucharest "
	p := review.BuildPrompt(domain.DraftRequest{
		BusinessName: "Acme",
		Description:  &desc,
		Location:     &loc,
		Rating:       2,
		Locale:       domain.LocaleRO,
	})

	assert.Contains(t, p, "Write a short, natural Google review for Acme (artisan bakery) in Bucharest.")
	assert.Contains(t, p, "Rating: 2 stars")
	assert.Contains(t, p, "Language: Romanian")
	assert.Contains(t, p, "Tone: disappointed but constructive")
	assert.Contains(t, p, "Write ONLY the review text in Romanian")
}

func TestBuildPrompt_OmitsBlankOptionals(t *testing.T) {
	blank := "   "
	p := review.BuildPrompt(domain.DraftRequest{BusinessName: "Acme", Description: &blank, Rating: 9})

	assert.Contains(t, p, "review for Acme.\n")
	assert.Contains(t, p, "Rating: 5 stars")
	assert.Contains(t, p, "Language: English")
	assert.Contains(t, p, "Tone: positive and satisfied")
}

func TestTone(t *testing.T) {
	assert.Equal(t, "disappointed and critical", review.Tone(0))
	assert.Equal(t, "neutral, mixed", review.Tone(3))
	assert.Equal(t, "positive", review.Tone(4.4))
}
