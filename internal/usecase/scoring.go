package usecase

import (
	"cmp"
	"slices"
	"strings"

	"github.com/beautycare/backend/internal/domain"
)

// Weights holds the selector scoring constants
type Weights struct {
	UndertoneMatch    float64 // undertone equal or product declares "any"
	UndertoneConflict float64 // subtracted for opposite concrete undertones
	Season            float64 // season tag present
	Depth             float64 // shade depth aligns with contrast
	Concern           float64 // per concern or skin type addressed
	InStock           float64 // product purchasable now
	Preference        float64 // per makeup style / finish match
}

// DefaultWeights returns the stock scoring constants
func DefaultWeights() Weights {
	return Weights{
		UndertoneMatch:    3.0,
		UndertoneConflict: 3.0,
		Season:            2.0,
		Depth:             2.0,
		Concern:           1.0,
		InStock:           1.0,
		Preference:        0.5,
	}
}

// concernActives lists ingredient tokens that address each concern. Matching
// is by substring so "salicylic_acid" satisfies "salicylic".
var concernActives = map[domain.Concern][]string{
	domain.ConcernAcne:         {"salicylic", "bha", "niacinamide", "benzoyl", "zinc", "azelaic"},
	domain.ConcernDryness:      {"hyaluronic", "ceramide", "squalane", "glycerin", "panthenol", "urea"},
	domain.ConcernAging:        {"retinol", "retinal", "peptide", "bakuchiol", "collagen"},
	domain.ConcernPigmentation: {"vitamin c", "ascorbic", "arbutin", "kojic", "tranexamic"},
	domain.ConcernSensitivity:  {"ceramide", "panthenol", "centella", "allantoin", "madecassoside"},
	domain.ConcernRedness:      {"centella", "cica", "azelaic", "panthenol", "madecassoside"},
}

var skinTypeActives = map[domain.SkinType][]string{
	domain.SkinOily:   {"niacinamide", "bha", "salicylic", "clay", "zinc"},
	domain.SkinDry:    {"ceramide", "squalane", "hyaluronic", "shea"},
	domain.SkinCombo:  {"niacinamide", "hyaluronic"},
	domain.SkinNormal: {"hyaluronic", "glycerin"},
}

// styleFinish is the finish each makeup style prefers
var styleFinish = map[domain.MakeupStyle]string{
	domain.StyleNatural: "natural",
	domain.StyleClassic: "satin",
	domain.StyleBold:    "matte",
	domain.StyleMinimal: "dewy",
}

var knownFinishes = []string{"matte", "satin", "dewy", "natural", "glow", "shimmer", "cream"}

// Match records which dimensions contributed to a score
type Match struct {
	Undertone      bool // concrete undertone equality
	AnyUndertone   bool
	Conflict       bool
	Season         bool
	Depth          bool
	Concerns       []domain.Concern
	SkinType       bool
	Available      bool
	StyleMatch     bool
	FinishMatch    bool
	PreferredDepth domain.Depth
}

// Scored is a candidate with its score and match breakdown
type Scored struct {
	Product domain.Product
	Source  domain.Source
	Score   float64
	Match   Match
}

// Scorer applies the weighted scoring function to candidates. It is
// stateless apart from its weights and lookups.
type Scorer struct {
	weights  Weights
	shades   domain.ShadeLookup
	resolver *SourceResolver
}

// NewScorer creates a scorer; nil shades disables shade-derived depth and finish
func NewScorer(weights Weights, shades domain.ShadeLookup, resolver *SourceResolver) *Scorer {
	if resolver == nil {
		resolver = NewSourceResolver()
	}
	return &Scorer{weights: weights, shades: shades, resolver: resolver}
}

// Weights returns the configured weights
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score evaluates one product against a profile
func (s *Scorer) Score(profile domain.UserProfile, p domain.Product) Scored {
	w := s.weights
	var m Match
	score := 0.0

	if profile.Undertone != "" {
		pu := p.EffectiveUndertone()
		switch {
		case pu == domain.UndertoneAny:
			m.AnyUndertone = true
			score += w.UndertoneMatch
		case pu == profile.Undertone:
			m.Undertone = true
			score += w.UndertoneMatch
		case undertonesConflict(pu, profile.Undertone):
			m.Conflict = true
			score -= w.UndertoneConflict
		}
	}

	if profile.Season != "" && p.HasTag(string(profile.Season)) {
		m.Season = true
		score += w.Season
	}

	if want := profile.Contrast.DepthFor(); want != "" {
		m.PreferredDepth = want
		if s.depthOf(p) == want {
			m.Depth = true
			score += w.Depth
		}
	}

	for _, c := range profile.Concerns {
		if p.HasTag(string(c)) || hasActive(p.Actives, concernActives[c]) {
			m.Concerns = append(m.Concerns, c)
			score += w.Concern
		}
	}
	if st := profile.SkinType; st != "" {
		if p.HasTag(string(st)) || p.HasTag(string(st)+"_skin") || hasActive(p.Actives, skinTypeActives[st]) {
			m.SkinType = true
			score += w.Concern
		}
	}

	src, _ := s.resolver.Resolve(p)
	if s.resolver.Available(p) {
		m.Available = true
		score += w.InStock
	}

	if style := profile.MakeupStyle; style != "" {
		if p.HasTag(string(style)) {
			m.StyleMatch = true
			score += w.Preference
		}
		if finish := styleFinish[style]; finish != "" && s.finishOf(p) == finish {
			m.FinishMatch = true
			score += w.Preference
		}
	}

	return Scored{Product: p, Source: src, Score: score, Match: m}
}

// Rank scores and orders candidates: score desc, then availability, price
// asc and product id asc so equal scores resolve the same way every run.
func (s *Scorer) Rank(profile domain.UserProfile, candidates []domain.Product) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, p := range candidates {
		out = append(out, s.Score(profile, p))
	}
	slices.SortStableFunc(out, compareScored)
	return out
}

func compareScored(a, b Scored) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if a.Match.Available != b.Match.Available {
		if a.Match.Available {
			return -1
		}
		return 1
	}
	if c := a.Product.Price.Cmp(b.Product.Price); c != 0 {
		return c
	}
	return strings.Compare(a.Product.ID, b.Product.ID)
}

// undertonesConflict is true for opposite concrete undertones. Neutral sits
// between warm and cool and conflicts with neither.
func undertonesConflict(a, b domain.Undertone) bool {
	return (a == domain.UndertoneWarm && b == domain.UndertoneCool) ||
		(a == domain.UndertoneCool && b == domain.UndertoneWarm)
}

func (s *Scorer) depthOf(p domain.Product) domain.Depth {
	for _, d := range []domain.Depth{domain.DepthLight, domain.DepthMedium, domain.DepthDeep} {
		if p.HasTag(string(d)) {
			return d
		}
	}
	if s.shades != nil && p.ShadeID != "" {
		if info, ok := s.shades.ByID(p.ShadeID); ok {
			return info.Depth
		}
	}
	return ""
}

func (s *Scorer) finishOf(p domain.Product) string {
	for _, f := range knownFinishes {
		if p.HasTag(f) {
			return f
		}
	}
	if s.shades != nil && p.ShadeID != "" {
		if info, ok := s.shades.ByID(p.ShadeID); ok {
			return info.Finish
		}
	}
	return ""
}

func hasActive(actives, wanted []string) bool {
	for _, a := range actives {
		a = strings.ReplaceAll(strings.ToLower(a), "_", " ")
		for _, w := range wanted {
			if strings.Contains(a, w) {
				return true
			}
		}
	}
	return false
}
