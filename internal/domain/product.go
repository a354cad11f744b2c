package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Category is a product category from the closed catalog set
type Category string

// Makeup categories
const (
	CategoryFoundation  Category = "foundation"
	CategoryConcealer   Category = "concealer"
	CategoryCorrector   Category = "corrector"
	CategoryPowder      Category = "powder"
	CategoryBlush       Category = "blush"
	CategoryBronzer     Category = "bronzer"
	CategoryContour     Category = "contour"
	CategoryHighlighter Category = "highlighter"
	CategoryEyebrow     Category = "eyebrow"
	CategoryEyeshadow   Category = "eyeshadow"
	CategoryEyeliner    Category = "eyeliner"
	CategoryMascara     Category = "mascara"
	CategoryLipstick    Category = "lipstick"
	CategoryLipGloss    Category = "lip_gloss"
	CategoryLipLiner    Category = "lip_liner"
)

// Skincare categories
const (
	CategoryCleanser      Category = "cleanser"
	CategoryToner         Category = "toner"
	CategorySerum         Category = "serum"
	CategoryMoisturizer   Category = "moisturizer"
	CategorySPF           Category = "spf"
	CategoryExfoliant     Category = "exfoliant"
	CategoryMask          Category = "mask"
	CategoryEyeCream      Category = "eye_cream"
	CategoryMakeupRemover Category = "makeup_remover"
)

var knownCategories = map[Category]bool{
	CategoryFoundation: true, CategoryConcealer: true, CategoryCorrector: true, CategoryPowder: true,
	CategoryBlush: true, CategoryBronzer: true, CategoryContour: true, CategoryHighlighter: true,
	CategoryEyebrow: true, CategoryEyeshadow: true, CategoryEyeliner: true, CategoryMascara: true,
	CategoryLipstick: true, CategoryLipGloss: true, CategoryLipLiner: true,
	CategoryCleanser: true, CategoryToner: true, CategorySerum: true, CategoryMoisturizer: true,
	CategorySPF: true, CategoryExfoliant: true, CategoryMask: true, CategoryEyeCream: true,
	CategoryMakeupRemover: true,
}

// categoryAliases maps legacy and colloquial catalog slugs onto the closed set
var categoryAliases = map[string]Category{
	"sunscreen":       CategorySPF,
	"sunblock":        CategorySPF,
	"peeling":         CategoryExfoliant,
	"scrub":           CategoryExfoliant,
	"brow":            CategoryEyebrow,
	"brows":           CategoryEyebrow,
	"eyebrows":        CategoryEyebrow,
	"cream":           CategoryMoisturizer,
	"face_cream":      CategoryMoisturizer,
	"lipgloss":        CategoryLipGloss,
	"gloss":           CategoryLipGloss,
	"lipliner":        CategoryLipLiner,
	"lip_pencil":      CategoryLipLiner,
	"liner":           CategoryEyeliner,
	"shadow":          CategoryEyeshadow,
	"eye_shadow":      CategoryEyeshadow,
	"eyecream":        CategoryEyeCream,
	"remover":         CategoryMakeupRemover,
	"micellar":        CategoryMakeupRemover,
	"tonic":           CategoryToner,
	"face_wash":       CategoryCleanser,
	"wash":            CategoryCleanser,
	"essence":         CategorySerum,
	"highlight":       CategoryHighlighter,
	"tone_foundation": CategoryFoundation,
}

// ParseCategory resolves a raw catalog slug to a known category, applying aliases
func ParseCategory(raw string) (Category, bool) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	slug = strings.NewReplacer(" ", "_", "-", "_").Replace(slug)
	if knownCategories[Category(slug)] {
		return Category(slug), true
	}
	if c, ok := categoryAliases[slug]; ok {
		return c, true
	}
	return "", false
}

// Undertone is the warm/cool/neutral skin classification. Products may also
// declare UndertoneAny.
type Undertone string

const (
	UndertoneWarm    Undertone = "warm"
	UndertoneCool    Undertone = "cool"
	UndertoneNeutral Undertone = "neutral"
	UndertoneAny     Undertone = "any"
)

// Depth is the lightness bucket of a shade
type Depth string

const (
	DepthLight  Depth = "light"
	DepthMedium Depth = "medium"
	DepthDeep   Depth = "deep"
)

// SourceKind identifies the merchant class behind a purchase source
type SourceKind string

const (
	SourceGoldapple     SourceKind = "goldapple"
	SourceOfficial      SourceKind = "official"
	SourceMarketplace   SourceKind = "marketplace"
	SourceInternational SourceKind = "international"
)

// Priority returns the resolver rank of a source kind; higher wins. Unknown
// kinds rank below every known one.
func (k SourceKind) Priority() int {
	switch k {
	case SourceGoldapple:
		return 4
	case SourceOfficial:
		return 3
	case SourceMarketplace:
		return 2
	case SourceInternational:
		return 1
	default:
		return 0
	}
}

// Source is one merchant offering for a product
type Source struct {
	Kind    SourceKind      `json:"kind"`
	URL     string          `json:"url"`
	InStock bool            `json:"in_stock"`
	Price   decimal.Decimal `json:"price"`
}

// Product is the immutable catalog atom
type Product struct {
	ID             string          `json:"product_id"`
	Brand          string          `json:"brand"`
	Title          string          `json:"title"`
	Category       Category        `json:"category"`
	ShadeName      string          `json:"shade_name,omitempty"`
	ShadeID        string          `json:"shade_id,omitempty"`
	UndertoneMatch Undertone       `json:"undertone_match,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Actives        []string        `json:"actives,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	InStock        bool            `json:"in_stock"`
	Sources        []Source        `json:"sources,omitempty"`

	// Extra holds catalog fields this service does not model
	Extra map[string]any `json:"-"`
}

// HasTag reports whether the product carries the tag (case-insensitive)
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// EffectiveUndertone treats an unset undertone as UndertoneAny
func (p Product) EffectiveUndertone() Undertone {
	if p.UndertoneMatch == "" {
		return UndertoneAny
	}
	return p.UndertoneMatch
}

// NormalizeText applies NFC normalization, Unicode case folding and collapses
// whitespace runs to a single space.
func NormalizeText(s string) string {
	// Casers are stateful and must not be shared between goroutines.
	s = cases.Fold().String(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// DeriveProductID builds the stable id used when the catalog omits one
func DeriveProductID(brand, title, shadeName string) string {
	lower := cases.Lower(language.Und)
	parts := make([]string, 0, 3)
	for _, p := range []string{brand, title, shadeName} {
		n := strings.Join(strings.Fields(lower.String(norm.NFC.String(p))), " ")
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "-")
}
