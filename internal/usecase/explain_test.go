package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/beautycare/backend/internal/domain"
)

func TestExplain(t *testing.T) {
	profile := domain.UserProfile{
		Undertone: domain.UndertoneWarm,
		Season:    domain.SeasonAutumn,
		Contrast:  domain.ContrastLow,
		SkinType:  domain.SkinDry,
	}
	foundation := domain.Product{Category: domain.CategoryFoundation}

	tests := []struct {
		name   string
		match  Match
		reason string
		want   string
	}{
		{
			name:  "undertone and season",
			match: Match{Undertone: true, Season: true},
			want:  "matches warm undertone and autumn season",
		},
		{
			name:  "undertone only names the palette",
			match: Match{Undertone: true},
			want:  "matches warm undertone of your autumn palette",
		},
		{
			name:  "any undertone with season",
			match: Match{AnyUndertone: true, Season: true},
			want:  "suits any undertone and autumn season",
		},
		{
			name:  "depth clause",
			match: Match{Depth: true, PreferredDepth: domain.DepthLight},
			want:  "light depth for low contrast",
		},
		{
			name:  "concern with skin type",
			match: Match{Concerns: []domain.Concern{domain.ConcernDryness}, SkinType: true},
			want:  "hydrating for dry skin",
		},
		{
			name:  "skin type only",
			match: Match{SkinType: true},
			want:  "suited to dry skin",
		},
		{
			name:   "fallback first, three clauses at most",
			match:  Match{Available: true, Undertone: true, Season: true, Depth: true, PreferredDepth: domain.DepthLight, SkinType: true},
			reason: domain.FallbackReasonOOS,
			want:   "in-stock alternative (oos); matches warm undertone and autumn season; light depth for low contrast",
		},
		{
			name:   "unavailable winner is not called in stock",
			match:  Match{Undertone: true, Season: true},
			reason: domain.FallbackReasonCoverage,
			want:   "out of stock everywhere, closest match; matches warm undertone and autumn season",
		},
		{
			name:  "nothing matched",
			match: Match{},
			want:  "best available foundation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Explain(profile, Scored{Product: foundation, Match: tt.match}, tt.reason)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplainDefaultUsesReadableCategory(t *testing.T) {
	got := Explain(domain.UserProfile{}, Scored{Product: domain.Product{Category: domain.CategoryLipGloss}}, "")
	assert.Equal(t, "best available lip gloss", got)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("увлажнение ", 20)
	got := truncate(long, maxExplainLength)

	assert.Equal(t, maxExplainLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "short", truncate("short", maxExplainLength))
}
