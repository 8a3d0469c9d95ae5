package domain

import (
	"math"
	"strings"
)

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleRO Locale = "ro"
)

// Locales lists every supported locale; template buckets exist for each.
var Locales = []Locale{LocaleEN, LocaleRO}

// ParseLocale accepts "ro", "ro-RO", "RO" etc. Anything unknown is English.
func ParseLocale(s string) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "ro") {
		return LocaleRO
	}
	return LocaleEN
}

// LanguageName is the name used inside AI prompts.
func (l Locale) LanguageName() string {
	if l == LocaleRO {
		return "Romanian"
	}
	return "English"
}

const (
	MinRating = 1
	MaxRating = 5
)

// ClampRating rounds to the nearest integer and clamps into [1,5].
func ClampRating(r float64) int {
	if math.IsNaN(r) {
		return MaxRating
	}
	n := int(math.Round(math.Max(MinRating, math.Min(MaxRating, r))))
	return n
}

// DraftRequest is everything the draft generators need about one review session.
type DraftRequest struct {
	BusinessName string
	Location     *string
	Description  *string
	Rating       float64
	Locale       Locale
}

// AIMode selects how drafts are produced. The set of variants is closed:
// TemplateOnly and AIAssisted.
type AIMode interface {
	aiMode()
}

// TemplateOnly means no AI credential is configured.
type TemplateOnly struct{}

// AIAssisted carries the credential and provider settings for the AI path.
type AIAssisted struct {
	Provider   string
	Credential string
	Model      string
}

func (TemplateOnly) aiMode() {}
func (AIAssisted) aiMode()   {}
