package review

import (
	"math/rand"
	"strings"
	"sync"

	"reviewpasta/internal/domain"
)

// Renderer picks a template for a rating/locale and fills in the business name.
// Safe for concurrent use.
type Renderer struct {
	mu        sync.Mutex
	rng       *rand.Rand
	templates map[domain.Locale]map[int][]string
}

// NewRenderer uses the built-in template table and the given random source.
// Tests pass a fixed seed to get reproducible picks.
func NewRenderer(src rand.Source) *Renderer {
	return &Renderer{rng: rand.New(src), templates: Templates}
}

// Render never fails: the rating is rounded and clamped into [1,5] and an
// unknown locale falls back to English.
func (r *Renderer) Render(businessName string, rating float64, locale domain.Locale) string {
	bucket := r.bucket(locale, domain.ClampRating(rating))

	r.mu.Lock()
	tpl := bucket[r.rng.Intn(len(bucket))]
	r.mu.Unlock()

	return Fill(tpl, businessName)
}

// Fill substitutes every placeholder occurrence and trims the result.
func Fill(tpl, businessName string) string {
	return strings.TrimSpace(strings.ReplaceAll(tpl, Placeholder, businessName))
}

func (r *Renderer) bucket(locale domain.Locale, rating int) []string {
	if buckets, ok := r.templates[locale]; ok {
		if b := buckets[rating]; len(b) > 0 {
			return b
		}
	}
	return r.templates[domain.LocaleEN][rating]
}
