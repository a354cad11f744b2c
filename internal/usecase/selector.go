package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/beautycare/backend/internal/domain"
)

// SelectorConfig holds the selector's construction-time settings
type SelectorConfig struct {
	PartnerCode  string
	RedirectBase string
	Weights      Weights
}

// Selector turns a profile into a per-slot product selection. Given the
// same profile, catalog snapshot and config it produces identical results.
type Selector struct {
	catalog   domain.CatalogReader
	shades    domain.ShadeLookup
	resolver  *SourceResolver
	scorer    *Scorer
	linker    *AffiliateLinker
	validator *AffiliateValidator
	events    *EventPublisher
}

// NewSelector creates a selector
func NewSelector(catalog domain.CatalogReader, shades domain.ShadeLookup, events *EventPublisher, cfg SelectorConfig) *Selector {
	resolver := NewSourceResolver()
	return &Selector{
		catalog:   catalog,
		shades:    shades,
		resolver:  resolver,
		scorer:    NewScorer(cfg.Weights, shades, resolver),
		linker:    NewAffiliateLinker(cfg.PartnerCode, cfg.RedirectBase),
		validator: NewAffiliateValidator(cfg.PartnerCode),
		events:    events,
	}
}

// Scorer exposes the scoring function shared with the cart service
func (s *Selector) Scorer() *Scorer {
	return s.scorer
}

// Validator exposes the affiliate validator used on emitted links
func (s *Selector) Validator() *AffiliateValidator {
	return s.validator
}

// pendingEvent is buffered while the catalog lock is held and published
// after it is released
type pendingEvent struct {
	name  string
	props map[string]any
}

// Select runs every section the profile has data for. Makeup sections need
// the color dimensions, skincare sections need the skin type. Slots without
// candidates are omitted and listed in Uncovered. When nothing at all is
// covered the (empty) result is returned together with ErrSelectionEmpty.
func (s *Selector) Select(ctx context.Context, profile domain.UserProfile) (*domain.SelectionResult, error) {
	if !profile.HasColor() && !profile.HasSkin() {
		return nil, fmt.Errorf("%w: profile has neither color nor skin attributes", domain.ErrInvalidRequest)
	}

	result := &domain.SelectionResult{UserID: profile.UserID, Sections: []domain.SectionResult{}}
	var pending []pendingEvent

	err := s.catalog.View(func(snap domain.CatalogSnapshot) error {
		for _, layout := range domain.SelectionLayout {
			if layout.Section.IsMakeup() && !profile.HasColor() {
				continue
			}
			if !layout.Section.IsMakeup() && !profile.HasSkin() {
				continue
			}

			section := domain.SectionResult{Section: layout.Section}
			for _, slot := range layout.Slots {
				select {
				case <-ctx.Done():
					return domain.ContextError(ctx)
				default:
				}

				entry, ok, events := s.selectSlot(profile, snap, slot)
				pending = append(pending, events...)
				if !ok {
					ref := domain.SlotRef{Section: layout.Section, Slot: slot}
					result.Uncovered = append(result.Uncovered, ref)
					pending = append(pending, pendingEvent{domain.EventSlotUncovered, map[string]any{
						"section": string(ref.Section),
						"slot":    string(ref.Slot),
					}})
					continue
				}
				section.Entries = append(section.Entries, entry)
			}
			if len(section.Entries) > 0 {
				result.Sections = append(result.Sections, section)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pending {
		s.events.Publish(ctx, ev.name, profile.UserID, ev.props)
	}

	covered := len(result.Entries())
	s.events.Publish(ctx, domain.EventSelectionDone, profile.UserID, map[string]any{
		"covered":   covered,
		"uncovered": len(result.Uncovered),
	})

	log.Info().
		Str("user_id", profile.UserID).
		Int("covered", covered).
		Int("uncovered", len(result.Uncovered)).
		Msg("Selection completed")

	if covered == 0 {
		return result, domain.ErrSelectionEmpty
	}
	return result, nil
}

// candidates returns products of the slot's category that can be bought
// somewhere, i.e. whose resolved source has a URL
func (s *Selector) candidates(snap domain.CatalogSnapshot, category domain.Category) []domain.Product {
	var out []domain.Product
	for _, p := range snap.ByCategory(category) {
		if src, ok := s.resolver.Resolve(p); ok && src.URL != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Selector) selectSlot(profile domain.UserProfile, snap domain.CatalogSnapshot, slot domain.Category) (domain.Entry, bool, []pendingEvent) {
	ranked := s.scorer.Rank(profile, s.candidates(snap, slot))
	if len(ranked) == 0 {
		return domain.Entry{}, false, nil
	}

	winner := ranked[0]
	chosen, reason, stage := winner, "", ""
	if !winner.Match.Available {
		chosen, reason, stage = s.fallback(profile, ranked)
		log.Debug().
			Str("slot", string(slot)).
			Str("product_id", winner.Product.ID).
			Str("replacement", chosen.Product.ID).
			Str("stage", stage).
			Msg("Primary winner out of stock")
	}

	entry, events := s.entryFor(profile, chosen, reason)
	entry.Slot = slot
	if reason != "" {
		entry.IsFallback = true
		entry.FallbackReason = reason
		entry.FallbackStage = stage
		if chosen.Product.ID != winner.Product.ID {
			entry.DisplacedID = winner.Product.ID
		}
	}
	return entry, true, events
}

// fallback walks the out-of-stock chain for a displaced winner (ranked[0]):
// same (category, undertone) bucket, shade neighbors of the winner, the
// season's universal shades, and finally the best in-stock candidate. Inside
// the bucket a neighbor or universal shade beats a distant one. With nothing
// in stock the winner itself is kept as a coverage fallback.
func (s *Selector) fallback(profile domain.UserProfile, ranked []Scored) (Scored, string, string) {
	winner := ranked[0]
	rest := ranked[1:]

	var neighbors, universals map[string]bool
	if s.shades != nil {
		if winner.Product.ShadeID != "" {
			neighbors = toSet(s.shades.GetShadeNeighbors(winner.Product.ShadeID))
		}
		universals = toSet(s.shades.SeasonUniversals(profile.Season))
	}
	closeShade := func(c Scored) bool {
		return neighbors[c.Product.ShadeID] || universals[c.Product.ShadeID]
	}

	bucket := winner.Product.EffectiveUndertone()
	var sameBucket []Scored
	for _, c := range rest {
		if c.Match.Available && c.Product.EffectiveUndertone() == bucket {
			sameBucket = append(sameBucket, c)
		}
	}
	for _, c := range sameBucket {
		if closeShade(c) {
			return c, domain.FallbackReasonOOS, domain.FallbackStageBucket
		}
	}
	if len(sameBucket) > 0 {
		return sameBucket[0], domain.FallbackReasonOOS, domain.FallbackStageBucket
	}

	for _, c := range rest {
		if c.Match.Available && neighbors[c.Product.ShadeID] {
			return c, domain.FallbackReasonOOS, domain.FallbackStageNeighbor
		}
	}

	for _, c := range rest {
		if c.Match.Available && universals[c.Product.ShadeID] {
			return c, domain.FallbackReasonOOS, domain.FallbackStageUniversal
		}
	}

	for _, c := range rest {
		if c.Match.Available {
			return c, domain.FallbackReasonCoverage, domain.FallbackStageTopScored
		}
	}
	return winner, domain.FallbackReasonCoverage, domain.FallbackStageTopScored
}

// entryFor renders a scored product as a result entry, including its
// affiliate link. A link that fails validation is logged, reported to
// analytics and replaced by the plain source URL.
func (s *Selector) entryFor(profile domain.UserProfile, c Scored, fallbackReason string) (domain.Entry, []pendingEvent) {
	p := c.Product
	entry := domain.Entry{
		Slot:      p.Category,
		ProductID: p.ID,
		Brand:     p.Brand,
		Title:     p.Title,
		ShadeName: p.ShadeName,
		ShadeID:   p.ShadeID,
		Price:     displayPrice(p, c.Source),
		Currency:  p.Currency,
		InStock:   c.Match.Available,
		Source:    c.Source,
		Explain:   Explain(profile, c, fallbackReason),
		Score:     c.Score,
	}

	var events []pendingEvent
	link, err := s.linker.Link(c.Source.URL)
	if err == nil {
		err = s.validator.Check(link)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("product_id", p.ID).
			Str("url", c.Source.URL).
			Msg("Affiliate link failed validation, emitting source URL")
		events = append(events, pendingEvent{domain.EventAffiliateMissing, map[string]any{
			"product_id": p.ID,
			"url":        c.Source.URL,
		}})
		link = c.Source.URL
	}
	entry.AffiliateURL = link

	return entry, events
}

// RankedPage is one page of a category listing
type RankedPage struct {
	Category domain.Category `json:"category"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
	HasMore  bool            `json:"has_more"`
	Entries  []domain.Entry  `json:"entries"`
}

// Browse lists the candidates of one category in ranking order, paged from 1
func (s *Selector) Browse(ctx context.Context, profile domain.UserProfile, category domain.Category, page, pageSize int) (*RankedPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and page size must be positive", domain.ErrInvalidRequest)
	}

	out := &RankedPage{Category: category, Page: page, PageSize: pageSize, Entries: []domain.Entry{}}
	var pending []pendingEvent

	err := s.catalog.View(func(snap domain.CatalogSnapshot) error {
		if err := domain.ContextError(ctx); err != nil {
			return err
		}
		ranked := s.scorer.Rank(profile, s.candidates(snap, category))
		out.Total = len(ranked)

		start := (page - 1) * pageSize
		if start >= len(ranked) {
			return nil
		}
		end := min(start+pageSize, len(ranked))
		out.HasMore = end < len(ranked)
		for _, c := range ranked[start:end] {
			entry, events := s.entryFor(profile, c, "")
			entry.Slot = category
			out.Entries = append(out.Entries, entry)
			pending = append(pending, events...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pending {
		s.events.Publish(ctx, ev.name, profile.UserID, ev.props)
	}
	return out, nil
}

// displayPrice prefers the resolved source's price when the catalog lists one
func displayPrice(p domain.Product, src domain.Source) decimal.Decimal {
	if !src.Price.IsZero() {
		return src.Price
	}
	return p.Price
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
