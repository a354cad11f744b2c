package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beautycare/backend/internal/domain"
)

const (
	maxExplainClauses = 3
	maxExplainLength  = 120
)

var concernPhrases = map[domain.Concern]string{
	domain.ConcernDryness:      "hydrating",
	domain.ConcernAcne:         "fights breakouts",
	domain.ConcernAging:        "anti-aging",
	domain.ConcernPigmentation: "evens out tone",
	domain.ConcernSensitivity:  "gentle formula",
	domain.ConcernRedness:      "soothes redness",
}

var skinTypeLabels = map[domain.SkinType]string{
	domain.SkinDry:    "dry skin",
	domain.SkinOily:   "oily skin",
	domain.SkinCombo:  "combination skin",
	domain.SkinNormal: "normal skin",
}

// Explain builds the short justification shown on a product card. Output
// depends only on its arguments.
func Explain(profile domain.UserProfile, s Scored, fallbackReason string) string {
	var clauses []string

	switch {
	case fallbackReason != "" && s.Match.Available:
		clauses = append(clauses, fmt.Sprintf("in-stock alternative (%s)", fallbackReason))
	case fallbackReason != "":
		clauses = append(clauses, "out of stock everywhere, closest match")
	}

	if c := colorClause(profile, s.Match); c != "" {
		clauses = append(clauses, c)
	}

	if s.Match.Depth {
		clauses = append(clauses, fmt.Sprintf("%s depth for %s contrast", s.Match.PreferredDepth, profile.Contrast))
	}

	if c := skinClause(profile, s.Match); c != "" {
		clauses = append(clauses, c)
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("best available %s", strings.ReplaceAll(string(s.Product.Category), "_", " "))
	}
	if len(clauses) > maxExplainClauses {
		clauses = clauses[:maxExplainClauses]
	}

	return truncate(strings.Join(clauses, "; "), maxExplainLength)
}

func colorClause(profile domain.UserProfile, m Match) string {
	switch {
	case m.Undertone && m.Season:
		return fmt.Sprintf("matches %s undertone and %s season", profile.Undertone, profile.Season)
	case m.Undertone && profile.Season != "":
		return fmt.Sprintf("matches %s undertone of your %s palette", profile.Undertone, profile.Season)
	case m.Undertone:
		return fmt.Sprintf("matches %s undertone", profile.Undertone)
	case m.AnyUndertone && m.Season:
		return fmt.Sprintf("suits any undertone and %s season", profile.Season)
	case m.Season:
		return fmt.Sprintf("fits %s season", profile.Season)
	}
	return ""
}

func skinClause(profile domain.UserProfile, m Match) string {
	var phrases []string
	for _, c := range m.Concerns {
		if p, ok := concernPhrases[c]; ok {
			phrases = append(phrases, p)
		}
	}
	label := skinTypeLabels[profile.SkinType]

	switch {
	case len(phrases) > 0 && m.SkinType && label != "":
		return strings.Join(phrases, " and ") + " for " + label
	case len(phrases) > 0:
		return strings.Join(phrases, " and ")
	case m.SkinType && label != "":
		return "suited to " + label
	}
	return ""
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
