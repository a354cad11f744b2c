package analytics

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/beautycare/backend/internal/domain"
)

const (
	defaultRetention   = 24 * time.Hour
	defaultMaxEvents   = 100_000
	topOOSProductLimit = 10
)

// record is the part of an event the aggregator keeps
type record struct {
	name      string
	userID    string
	productID string
	at        time.Time
}

// Aggregator keeps recent events in memory and summarizes them on demand.
// Events older than the retention window, or beyond maxEvents, are dropped
// oldest first.
type Aggregator struct {
	mu        sync.Mutex
	records   []record
	retention time.Duration
	maxEvents int
	now       func() time.Time
}

// NewAggregator creates an aggregator keeping events for retention
func NewAggregator(retention time.Duration, maxEvents int) *Aggregator {
	if retention <= 0 {
		retention = defaultRetention
	}
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	return &Aggregator{retention: retention, maxEvents: maxEvents, now: time.Now}
}

// SetClock overrides the clock used for pruning and windows; tests only
func (a *Aggregator) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// Emit records the event
func (a *Aggregator) Emit(_ context.Context, event domain.Event) {
	r := record{name: event.Name, userID: event.UserID, at: event.OccurredAt}
	if id, ok := event.Properties["product_id"].(string); ok {
		r.productID = id
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if r.at.IsZero() {
		r.at = a.now()
	}
	a.records = append(a.records, r)
	a.prune(a.now())
}

// prune drops expired and excess records. Caller holds the lock.
func (a *Aggregator) prune(now time.Time) {
	cutoff := now.Add(-a.retention)
	drop := 0
	for drop < len(a.records) && a.records[drop].at.Before(cutoff) {
		drop++
	}
	if excess := len(a.records) - drop - a.maxEvents; excess > 0 {
		drop += excess
	}
	if drop > 0 {
		a.records = slices.Delete(a.records, 0, drop)
	}
}

// Summary aggregates the events of the trailing window. A window that is
// zero or longer than the retention covers everything retained.
func (a *Aggregator) Summary(window time.Duration) domain.EventSummary {
	a.mu.Lock()
	now := a.now()
	a.prune(now)
	if window <= 0 || window > a.retention {
		window = a.retention
	}
	from := now.Add(-window)
	records := slices.Clone(a.records)
	a.mu.Unlock()

	summary := domain.EventSummary{From: from, To: now, ByEvent: make(map[string]int)}
	users := make(map[string]bool)
	steps := map[string]map[string]bool{
		domain.EventProfileBuilt:  {},
		domain.EventSelectionDone: {},
		domain.EventCartAdd:       {},
		domain.EventCartCheckout:  {},
		domain.EventCartOOS:       {},
	}
	oosProducts := make(map[string]int)

	for _, r := range records {
		if r.at.Before(from) {
			continue
		}
		summary.Total++
		summary.ByEvent[r.name]++
		if r.userID != "" {
			users[r.userID] = true
			if step, ok := steps[r.name]; ok {
				step[r.userID] = true
			}
		}

		switch r.name {
		case domain.EventCartOOS:
			summary.OOS.CartEvents++
			if r.productID != "" {
				oosProducts[r.productID]++
			}
		case domain.EventSlotUncovered:
			summary.OOS.UncoveredSlots++
		}
	}

	summary.UniqueUsers = len(users)
	summary.Funnel = domain.Funnel{
		Profiled:    len(steps[domain.EventProfileBuilt]),
		Selected:    len(steps[domain.EventSelectionDone]),
		AddedToCart: len(steps[domain.EventCartAdd]),
		CheckedOut:  len(steps[domain.EventCartCheckout]),
	}
	summary.Funnel.AddToCartRate = ratio(summary.Funnel.AddedToCart, summary.Funnel.Selected)
	summary.Funnel.CheckoutRate = ratio(summary.Funnel.CheckedOut, summary.Funnel.AddedToCart)
	summary.OOS.AffectedUsers = len(steps[domain.EventCartOOS])
	summary.OOS.TopProducts = topProducts(oosProducts, topOOSProductLimit)

	return summary
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// topProducts orders by count desc, then product id
func topProducts(counts map[string]int, limit int) []domain.ProductCount {
	out := make([]domain.ProductCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.ProductCount{ProductID: id, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.ProductCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.ProductID, b.ProductID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
