package review

import (
	"fmt"
	"strings"

	"reviewpasta/internal/domain"
)

var toneByRating = map[int]string{
	5: "positive and satisfied",
	4: "positive",
	3: "neutral, mixed",
	2: "disappointed but constructive",
	1: "disappointed and critical",
}

// Tone returns the tone descriptor for a rating after clamping.
func Tone(rating float64) string {
	return toneByRating[domain.ClampRating(rating)]
}

// BuildPrompt composes the instruction sent to the text-completion endpoint.
func BuildPrompt(req domain.DraftRequest) string {
	subject := req.BusinessName
	if d := trimmed(req.Description); d != "" {
		subject += " (" + d + ")"
	}
	if l := trimmed(req.Location); l != "" {
		subject += " in " + l
	}

	stars := domain.ClampRating(req.Rating)
	lang := req.Locale.LanguageName()

	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, natural Google review for %s.\n", subject)
	fmt.Fprintf(&b, "Rating: %d stars\n", stars)
	fmt.Fprintf(&b, "Language: %s\n", lang)
	fmt.Fprintf(&b, "Tone: %s\n", Tone(req.Rating))
	b.WriteString("Style: Conversational, authentic, like a real person\n")
	b.WriteString("Length: 1-2 sentences, keep it brief\n\n")
	fmt.Fprintf(&b, "Write ONLY the review text in %s, no quotes, no formatting.", lang)
	return b.String()
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
