package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beautycare/backend/internal/domain"
)

// SlotCoverage is how many of the sample profiles got a product in one slot
type SlotCoverage struct {
	Section   domain.Section  `json:"section"`
	Slot      domain.Category `json:"slot"`
	Profiles  int             `json:"profiles"`
	Covered   int             `json:"covered"`
	Fallbacks int             `json:"fallbacks"`
	Ratio     float64         `json:"ratio"`
	Gaps      []string        `json:"gaps,omitempty"`
}

// CoverageReport summarizes selection coverage over every profile
// combination the questionnaires can produce
type CoverageReport struct {
	MakeupProfiles   int            `json:"makeup_profiles"`
	SkincareProfiles int            `json:"skincare_profiles"`
	Slots            []SlotCoverage `json:"slots"`
	Overall          float64        `json:"overall"`
}

// Uncovered returns the slots no sample profile could fill
func (r *CoverageReport) Uncovered() []SlotCoverage {
	var out []SlotCoverage
	for _, s := range r.Slots {
		if s.Covered == 0 {
			out = append(out, s)
		}
	}
	return out
}

var (
	sampleUndertones = []domain.Undertone{domain.UndertoneWarm, domain.UndertoneCool, domain.UndertoneNeutral}
	sampleSeasons    = []domain.Season{domain.SeasonSpring, domain.SeasonSummer, domain.SeasonAutumn, domain.SeasonWinter}
	sampleContrasts  = []domain.Contrast{domain.ContrastLow, domain.ContrastMedium, domain.ContrastHigh}
	sampleSkinTypes  = []domain.SkinType{domain.SkinDry, domain.SkinOily, domain.SkinCombo, domain.SkinNormal}
)

// CoverageProfiles lists the sample profiles: every undertone, season and
// contrast for makeup, and every skin type with no concern or one concern
// for skincare.
func CoverageProfiles() (makeup, skincare []domain.UserProfile) {
	for _, u := range sampleUndertones {
		for _, s := range sampleSeasons {
			for _, c := range sampleContrasts {
				makeup = append(makeup, domain.UserProfile{
					UserID:    fmt.Sprintf("sample-%s-%s-%s", u, s, c),
					Undertone: u,
					Season:    s,
					Contrast:  c,
				})
			}
		}
	}
	for _, st := range sampleSkinTypes {
		skincare = append(skincare, domain.UserProfile{UserID: "sample-" + string(st), SkinType: st})
		for _, c := range concernOrder {
			skincare = append(skincare, domain.UserProfile{
				UserID:   fmt.Sprintf("sample-%s-%s", st, c),
				SkinType: st,
				Concerns: []domain.Concern{c},
			})
		}
	}
	return makeup, skincare
}

// AnalyzeCoverage runs the selector over every sample profile. The selector
// should be built without an event publisher so samples stay out of
// analytics.
func AnalyzeCoverage(ctx context.Context, selector *Selector) (*CoverageReport, error) {
	makeup, skincare := CoverageProfiles()
	report := &CoverageReport{MakeupProfiles: len(makeup), SkincareProfiles: len(skincare)}

	index := make(map[domain.SlotRef]int)
	for _, layout := range domain.SelectionLayout {
		n := len(skincare)
		if layout.Section.IsMakeup() {
			n = len(makeup)
		}
		for _, slot := range layout.Slots {
			index[domain.SlotRef{Section: layout.Section, Slot: slot}] = len(report.Slots)
			report.Slots = append(report.Slots, SlotCoverage{Section: layout.Section, Slot: slot, Profiles: n})
		}
	}

	for _, profile := range append(makeup, skincare...) {
		result, err := selector.Select(ctx, profile)
		if err != nil && !errors.Is(err, domain.ErrSelectionEmpty) {
			return nil, err
		}
		for _, section := range result.Sections {
			for _, e := range section.Entries {
				sc := &report.Slots[index[domain.SlotRef{Section: section.Section, Slot: e.Slot}]]
				sc.Covered++
				if e.IsFallback {
					sc.Fallbacks++
				}
			}
		}
		for _, ref := range result.Uncovered {
			sc := &report.Slots[index[ref]]
			sc.Gaps = append(sc.Gaps, sampleLabel(profile))
		}
	}

	var total, covered int
	for i := range report.Slots {
		sc := &report.Slots[i]
		if sc.Profiles > 0 {
			sc.Ratio = float64(sc.Covered) / float64(sc.Profiles)
		}
		total += sc.Profiles
		covered += sc.Covered
	}
	if total > 0 {
		report.Overall = float64(covered) / float64(total)
	}
	return report, nil
}

func sampleLabel(p domain.UserProfile) string {
	if p.HasColor() {
		return strings.Join([]string{string(p.Undertone), string(p.Season), string(p.Contrast)}, "/")
	}
	parts := []string{string(p.SkinType)}
	for _, c := range p.Concerns {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, "/")
}
