package usecase

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/beautycare/backend/internal/domain"
	"github.com/beautycare/backend/internal/infrastructure/catalog"
	"github.com/beautycare/backend/internal/infrastructure/shade"
)

const testPartner = "XYZ"

// memCatalog is a CatalogReader over an in-memory product list
type memCatalog struct {
	mu      sync.RWMutex
	snap    *catalog.Snapshot
	version uint64
}

func newMemCatalog(products ...domain.Product) *memCatalog {
	c := &memCatalog{}
	c.set(products...)
	return c
}

func (c *memCatalog) set(products ...domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.snap = catalog.NewSnapshot(c.version, products)
}

// update rewrites one product in place, as a catalog reload would
func (c *memCatalog) update(id string, fn func(p *domain.Product)) {
	all := c.Snapshot().All()
	for i := range all {
		if all[i].ID == id {
			all[i].Sources = slices.Clone(all[i].Sources)
			fn(&all[i])
		}
	}
	c.set(all...)
}

func (c *memCatalog) View(fn func(domain.CatalogSnapshot) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.snap)
}

func (c *memCatalog) Snapshot() domain.CatalogSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// recordingSink collects analytics events
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Emit(_ context.Context, e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) named(name string) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
}

// prod builds an in-stock product with one goldapple source
func prod(id string, category domain.Category, undertone domain.Undertone, price int64, opts ...func(*domain.Product)) domain.Product {
	p := domain.Product{
		ID:             id,
		Brand:          "Brand",
		Title:          id,
		Category:       category,
		UndertoneMatch: undertone,
		Price:          decimal.NewFromInt(price),
		Currency:       "RUB",
		InStock:        true,
		Sources: []domain.Source{
			{Kind: domain.SourceGoldapple, URL: "https://goldapple.ru/p/" + id, InStock: true},
		},
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

func withShade(id string) func(*domain.Product) {
	return func(p *domain.Product) { p.ShadeID = id }
}

func withTags(tags ...string) func(*domain.Product) {
	return func(p *domain.Product) { p.Tags = tags }
}

func withActives(actives ...string) func(*domain.Product) {
	return func(p *domain.Product) { p.Actives = actives }
}

func outOfStock(p *domain.Product) {
	p.InStock = false
	for i := range p.Sources {
		p.Sources[i].InStock = false
	}
}

func newShades(t *testing.T) *shade.Normalizer {
	t.Helper()
	n, err := shade.NewNormalizer("", "")
	require.NoError(t, err)
	return n
}

func newTestSelector(t *testing.T, cat domain.CatalogReader, sink domain.AnalyticsSink) *Selector {
	t.Helper()
	return NewSelector(cat, newShades(t), NewEventPublisher(sink, fixedClock), SelectorConfig{
		PartnerCode: testPartner,
		Weights:     DefaultWeights(),
	})
}
