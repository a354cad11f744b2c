package domain

import "github.com/shopspring/decimal"

// Section is a group of slots in a selection result, e.g. "makeup.base"
type Section string

const (
	SectionMakeupBase     Section = "makeup.base"
	SectionMakeupFace     Section = "makeup.face"
	SectionMakeupEyes     Section = "makeup.eyes"
	SectionMakeupLips     Section = "makeup.lips"
	SectionSkincareAM     Section = "skincare.AM"
	SectionSkincarePM     Section = "skincare.PM"
	SectionSkincareWeekly Section = "skincare.weekly"
)

// IsMakeup reports whether the section belongs to the makeup group
func (s Section) IsMakeup() bool {
	switch s {
	case SectionMakeupBase, SectionMakeupFace, SectionMakeupEyes, SectionMakeupLips:
		return true
	}
	return false
}

// SectionSlots is one section with its ordered slot list
type SectionSlots struct {
	Section Section
	Slots   []Category
}

// SelectionLayout is the closed, ordered section and slot table
var SelectionLayout = []SectionSlots{
	{SectionMakeupBase, []Category{CategoryFoundation, CategoryConcealer, CategoryCorrector, CategoryPowder}},
	{SectionMakeupFace, []Category{CategoryBlush, CategoryBronzer, CategoryContour, CategoryHighlighter}},
	{SectionMakeupEyes, []Category{CategoryEyebrow, CategoryEyeshadow, CategoryEyeliner, CategoryMascara}},
	{SectionMakeupLips, []Category{CategoryLipstick, CategoryLipGloss, CategoryLipLiner}},
	{SectionSkincareAM, []Category{CategoryCleanser, CategoryToner, CategorySerum, CategoryMoisturizer, CategorySPF}},
	{SectionSkincarePM, []Category{CategoryCleanser, CategoryToner, CategorySerum, CategoryMoisturizer}},
	{SectionSkincareWeekly, []Category{CategoryExfoliant, CategoryMask}},
}

// Fallback reasons
const (
	FallbackReasonOOS      = "oos"
	FallbackReasonCoverage = "coverage"
)

// Fallback stages, recorded alongside the reason
const (
	FallbackStageBucket    = "same_bucket"
	FallbackStageNeighbor  = "shade_neighbor"
	FallbackStageUniversal = "season_universal"
	FallbackStageTopScored = "top_scored"
)

// Entry is one selected product in a slot
type Entry struct {
	Slot           Category        `json:"slot"`
	ProductID      string          `json:"product_id"`
	Brand          string          `json:"brand"`
	Title          string          `json:"title"`
	ShadeName      string          `json:"shade_name,omitempty"`
	ShadeID        string          `json:"shade_id,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	InStock        bool            `json:"in_stock"`
	Source         Source          `json:"source"`
	AffiliateURL   string          `json:"affiliate_url"`
	Explain        string          `json:"explain"`
	Score          float64         `json:"score"`
	IsFallback     bool            `json:"is_fallback"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
	FallbackStage  string          `json:"fallback_stage,omitempty"`
	DisplacedID    string          `json:"displaced_product_id,omitempty"`
}

// SectionResult holds the entries of one section in slot order
type SectionResult struct {
	Section Section `json:"section"`
	Entries []Entry `json:"entries"`
}

// SlotRef names a slot within a section
type SlotRef struct {
	Section Section  `json:"section"`
	Slot    Category `json:"slot"`
}

// SelectionResult is the selector output for one profile
type SelectionResult struct {
	UserID    string          `json:"user_id"`
	Sections  []SectionResult `json:"sections"`
	Uncovered []SlotRef       `json:"uncovered,omitempty"`
}

// Entries returns every entry across sections in layout order
func (r *SelectionResult) Entries() []Entry {
	var out []Entry
	for _, s := range r.Sections {
		out = append(out, s.Entries...)
	}
	return out
}

// Section returns the result for a section, if present
func (r *SelectionResult) Section(s Section) (SectionResult, bool) {
	for _, sec := range r.Sections {
		if sec.Section == s {
			return sec, true
		}
	}
	return SectionResult{}, false
}

// Find returns the entry for a (section, slot) pair
func (r *SelectionResult) Find(s Section, slot Category) (Entry, bool) {
	sec, ok := r.Section(s)
	if !ok {
		return Entry{}, false
	}
	for _, e := range sec.Entries {
		if e.Slot == slot {
			return e, true
		}
	}
	return Entry{}, false
}

// IsEmpty reports whether no slot was covered
func (r *SelectionResult) IsEmpty() bool {
	for _, s := range r.Sections {
		if len(s.Entries) > 0 {
			return false
		}
	}
	return true
}
