package review_test

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
)

func filled(locale domain.Locale, rating int, name string) map[string]bool {
	out := map[string]bool{}
	for _, tpl := range review.Templates[locale][rating] {
		out[review.Fill(tpl, name)] = true
	}
	return out
}

func TestTemplates_Valid(t *testing.T) {
	require.NoError(t, review.ValidateTemplates(review.Templates))
	assert.NotPanics(t, review.MustValidateTemplates)
}

func TestValidateTemplates_Rejects(t *testing.T) {
	broken := map[domain.Locale]map[int][]string{
		domain.LocaleEN: {1: {"a {business}"}, 2: {"b {business}"}, 3: {"c {business}"}, 4: {"d {business}"}, 5: {}},
		domain.LocaleRO: review.Templates[domain.LocaleRO],
	}
	require.Error(t, review.ValidateTemplates(broken))

	broken[domain.LocaleEN][5] = []string{"{business} and {business}"}
	require.Error(t, review.ValidateTemplates(broken))

	delete(broken, domain.LocaleRO)
	broken[domain.LocaleEN][5] = []string{"ok {business}"}
	require.Error(t, review.ValidateTemplates(broken))
}

func TestRender_EnglishFiveStars(t *testing.T) {
	r := review.NewRenderer(rand.NewSource(1))
	allowed := filled(domain.LocaleEN, 5, "Acme")

	for i := 0; i < 50; i++ {
		got := r.Render("Acme", 5, domain.LocaleEN)
		assert.True(t, allowed[got], "unexpected draft %q", got)
		assert.Contains(t, got, "Acme")
		assert.NotContains(t, got, review.Placeholder)
	}
}

func TestRender_RomanianOneStar(t *testing.T) {
	r := review.NewRenderer(rand.NewSource(7))
	allowed := filled(domain.LocaleRO, 1, "Cafeneaua Veche")

	got := r.Render("Cafeneaua Veche", 1, domain.LocaleRO)
	assert.True(t, allowed[got], "unexpected draft %q", got)
}

func TestRender_ClampsRating(t *testing.T) {
	r := review.NewRenderer(rand.NewSource(3))

	cases := []struct {
		in   float64
		want int
	}{
		{0, 1},
		{-4, 1},
		{6, 5},
		{3.7, 4},
		{2.2, 2},
		{math.NaN(), 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.ClampRating(tc.in), "clamp(%v)", tc.in)
		got := r.Render("Acme", tc.in, domain.LocaleEN)
		assert.True(t, filled(domain.LocaleEN, tc.want, "Acme")[got], "rating %v rendered %q", tc.in, got)
	}
}

func TestRender_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	r := review.NewRenderer(rand.NewSource(1))
	got := r.Render("Acme", 3, domain.Locale("de"))
	assert.True(t, filled(domain.LocaleEN, 3, "Acme")[got])
}

func TestRender_SeededIsReproducible(t *testing.T) {
	a := review.NewRenderer(rand.NewSource(42))
	b := review.NewRenderer(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		rating := float64(i%5 + 1)
		assert.Equal(t, a.Render("Acme", rating, domain.LocaleEN), b.Render("Acme", rating, domain.LocaleEN))
	}
}

func TestRender_ConcurrentUse(t *testing.T) {
	r := review.NewRenderer(rand.NewSource(1))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if out := r.Render("Acme", 4, domain.LocaleRO); !strings.Contains(out, "Acme") {
					t.Errorf("missing name in %q", out)
				}
			}
		}()
	}
	wg.Wait()
}

func TestFill_TrimsAndReplaces(t *testing.T) {
	assert.Equal(t, "Go to Acme", review.Fill("  Go to {business} \n", "Acme"))
}
