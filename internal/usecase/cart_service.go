package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/beautycare/backend/internal/domain"
)

// CartConfig holds cart service settings
type CartConfig struct {
	PartnerCode     string
	RedirectBase    string
	MaxAlternatives int
}

// CartService manages per-user carts. Operations on one user run one at a
// time in arrival order; different users proceed independently. Each
// operation commits with a single store write, so a cancelled operation
// leaves the stored cart untouched.
type CartService struct {
	store    domain.CartStore
	catalog  domain.CatalogReader
	profiles domain.ProfileRepository
	shades   domain.ShadeLookup
	scorer   *Scorer
	resolver *SourceResolver
	linker   *AffiliateLinker
	events   *EventPublisher
	locks    *keyedLock
	now      func() time.Time

	// last line each user removed, for one-step undo; kept per process
	removedMu sync.Mutex
	removed   map[string]domain.CartItem

	maxAlternatives int
}

// NewCartService creates a cart service. profiles may be nil, in which case
// alternatives are ranked against a profile inferred from the missing item.
func NewCartService(
	store domain.CartStore,
	catalog domain.CatalogReader,
	profiles domain.ProfileRepository,
	shades domain.ShadeLookup,
	scorer *Scorer,
	events *EventPublisher,
	cfg CartConfig,
) *CartService {
	maxAlt := cfg.MaxAlternatives
	if maxAlt <= 0 {
		maxAlt = 3
	}
	resolver := NewSourceResolver()
	if scorer == nil {
		scorer = NewScorer(DefaultWeights(), shades, resolver)
	}
	return &CartService{
		store:           store,
		catalog:         catalog,
		profiles:        profiles,
		shades:          shades,
		scorer:          scorer,
		resolver:        resolver,
		linker:          NewAffiliateLinker(cfg.PartnerCode, cfg.RedirectBase),
		events:          events,
		locks:           newKeyedLock(),
		now:             time.Now,
		removed:         make(map[string]domain.CartItem),
		maxAlternatives: maxAlt,
	}
}

// SetClock overrides the clock used for added_at; tests only
func (s *CartService) SetClock(now func() time.Time) {
	s.now = now
}

// withCart runs fn under the user's lock with the stored items. When fn
// returns commit=true the new items are written back.
func (s *CartService) withCart(ctx context.Context, userID string, fn func(items []domain.CartItem) ([]domain.CartItem, bool, error)) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrInvalidRequest)
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	items, _, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, s.storeError(ctx, err)
	}
	items = slices.Clone(items)

	updated, commit, err := fn(items)
	if err != nil {
		return nil, err
	}
	if !commit {
		return updated, nil
	}

	if err := domain.ContextError(ctx); err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		err = s.store.Delete(ctx, userID)
	} else {
		err = s.store.Put(ctx, userID, updated)
	}
	if err != nil {
		return nil, s.storeError(ctx, err)
	}
	return updated, nil
}

func (s *CartService) storeError(ctx context.Context, err error) error {
	if ctxErr := domain.ContextError(ctx); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrDeadlineExceeded, err)
	}
	if errors.Is(err, domain.ErrCartStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrCartStoreUnavailable, err)
}

// Add puts qty units of a product in the cart, incrementing an existing line
func (s *CartService) Add(ctx context.Context, userID, productID string, qty int) (domain.CartItem, error) {
	if qty < 1 {
		return domain.CartItem{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}

	var added domain.CartItem
	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		p, err := s.lookup(productID)
		if err != nil {
			return nil, false, err
		}

		idx := indexOf(items, productID)
		if idx < 0 {
			items = append(items, domain.CartItem{ProductID: productID, AddedAt: s.now().UTC()})
			idx = len(items) - 1
		}

		item := &items[idx]
		if item.Qty+qty > domain.MaxCartQuantity {
			return nil, false, fmt.Errorf("%w: quantity would exceed %d", domain.ErrInvalidQuantity, domain.MaxCartQuantity)
		}
		item.Qty += qty
		s.refresh(item, p)

		added = *item
		return items, true, nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	s.events.Publish(ctx, domain.EventCartAdd, userID, map[string]any{
		"product_id": productID,
		"qty":        qty,
	})
	return added, nil
}

// Remove deletes a line; removing an absent product is a no-op. The line
// can be brought back with RestoreLastRemoved.
func (s *CartService) Remove(ctx context.Context, userID, productID string) error {
	var removed *domain.CartItem
	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		idx := indexOf(items, productID)
		if idx < 0 {
			return items, false, nil
		}
		item := items[idx]
		removed = &item
		return slices.Delete(items, idx, idx+1), true, nil
	})
	if err != nil {
		return err
	}

	if removed != nil {
		s.rememberRemoved(userID, *removed)
		s.events.Publish(ctx, domain.EventCartRemove, userID, map[string]any{"product_id": productID})
	}
	return nil
}

func (s *CartService) rememberRemoved(userID string, item domain.CartItem) {
	item.Alternatives = nil
	s.removedMu.Lock()
	s.removed[userID] = item
	s.removedMu.Unlock()
}

// RestoreLastRemoved puts the user's most recently removed line back. If
// the product was added again meanwhile the quantities merge. A product
// gone from the catalog comes back as its stored snapshot, out of stock.
func (s *CartService) RestoreLastRemoved(ctx context.Context, userID string) (domain.CartItem, error) {
	s.removedMu.Lock()
	last, ok := s.removed[userID]
	s.removedMu.Unlock()
	if !ok {
		return domain.CartItem{}, fmt.Errorf("%w: nothing to restore", domain.ErrProductNotFound)
	}

	var restored domain.CartItem
	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		item := last
		if idx := indexOf(items, last.ProductID); idx >= 0 {
			item = items[idx]
			item.Qty = min(item.Qty+last.Qty, domain.MaxCartQuantity)
			items = slices.Delete(items, idx, idx+1)
		}

		if p, err := s.lookup(item.ProductID); err == nil {
			s.refresh(&item, p)
		} else {
			item.Status = domain.CartStatusOOS
		}

		restored = item
		return append(items, item), true, nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	s.removedMu.Lock()
	if cur, ok := s.removed[userID]; ok && cur.ProductID == last.ProductID {
		delete(s.removed, userID)
	}
	s.removedMu.Unlock()

	s.events.Publish(ctx, domain.EventCartRestore, userID, map[string]any{
		"product_id": restored.ProductID,
		"qty":        restored.Qty,
	})
	return restored, nil
}

// SetQty replaces a line's quantity. Zero removes the line; a product not
// yet in the cart is added with qty.
func (s *CartService) SetQty(ctx context.Context, userID, productID string, qty int) error {
	if qty < 0 || qty > domain.MaxCartQuantity {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID)
	}

	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		idx := indexOf(items, productID)
		if idx >= 0 {
			if items[idx].Qty == qty {
				return items, false, nil
			}
			items[idx].Qty = qty
			return items, true, nil
		}

		p, err := s.lookup(productID)
		if err != nil {
			return nil, false, err
		}
		item := domain.CartItem{ProductID: productID, Qty: qty, AddedAt: s.now().UTC()}
		s.refresh(&item, p)
		return append(items, item), true, nil
	})
	return err
}

// Increment adds one unit of a product
func (s *CartService) Increment(ctx context.Context, userID, productID string) (domain.CartItem, error) {
	return s.Add(ctx, userID, productID, 1)
}

// Decrement lowers a line's quantity by one, removing it at zero
func (s *CartService) Decrement(ctx context.Context, userID, productID string) error {
	var removed *domain.CartItem
	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		idx := indexOf(items, productID)
		if idx < 0 {
			return nil, false, fmt.Errorf("%w: %s not in cart", domain.ErrProductNotFound, productID)
		}
		if items[idx].Qty <= 1 {
			item := items[idx]
			removed = &item
			return slices.Delete(items, idx, idx+1), true, nil
		}
		items[idx].Qty--
		return items, true, nil
	})
	if err != nil {
		return err
	}

	if removed != nil {
		s.rememberRemoved(userID, *removed)
		s.events.Publish(ctx, domain.EventCartRemove, userID, map[string]any{"product_id": productID})
	}
	return nil
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID string) error {
	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		return nil, len(items) > 0, nil
	})
	return err
}

// View re-evaluates every line against the current catalog, attaches
// alternatives to out-of-stock lines and totals the rest per currency.
func (s *CartService) View(ctx context.Context, userID string) (*domain.CartView, error) {
	var newlyOOS []string
	profile := s.profileFor(ctx, userID)

	items, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		if len(items) == 0 {
			return items, false, nil
		}
		err := s.catalog.View(func(snap domain.CatalogSnapshot) error {
			for i := range items {
				item := &items[i]
				prev := item.Status

				p, ok := snap.Get(item.ProductID)
				if ok {
					s.refresh(item, p)
				}
				if !ok || !s.resolver.Available(p) {
					item.Status = domain.CartStatusOOS
					item.Alternatives = s.alternatives(snap, *item, profile)
				} else if prev == domain.CartStatusReplaced {
					item.Alternatives = nil
				} else {
					item.Status = domain.CartStatusOK
					item.Alternatives = nil
				}

				if item.Status == domain.CartStatusOOS && prev != domain.CartStatusOOS {
					newlyOOS = append(newlyOOS, item.ProductID)
				}
			}
			return nil
		})
		if err != nil {
			return nil, false, err
		}
		return items, true, nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range newlyOOS {
		log.Info().Str("user_id", userID).Str("product_id", id).Msg("Cart item went out of stock")
		s.events.Publish(ctx, domain.EventCartOOS, userID, map[string]any{"product_id": id})
	}

	view := &domain.CartView{
		UserID: userID,
		Items:  items,
		Totals: make(map[string]decimal.Decimal),
	}
	if view.Items == nil {
		view.Items = []domain.CartItem{}
	}
	for _, item := range items {
		if item.Status == domain.CartStatusOOS || item.Currency == "" {
			continue
		}
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		view.Totals[item.Currency] = view.Totals[item.Currency].Add(line)
	}
	return view, nil
}

// Substitute swaps oldID for newID, keeping the quantity and marking the
// line replaced. If newID is already in the cart the quantities merge.
func (s *CartService) Substitute(ctx context.Context, userID, oldID, newID string) (domain.CartItem, error) {
	if oldID == newID {
		return domain.CartItem{}, fmt.Errorf("%w: substitute needs two different products", domain.ErrInvalidRequest)
	}

	var replaced domain.CartItem
	_, err := s.withCart(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, bool, error) {
		oldIdx := indexOf(items, oldID)
		if oldIdx < 0 {
			return nil, false, fmt.Errorf("%w: %s not in cart", domain.ErrProductNotFound, oldID)
		}
		p, err := s.lookup(newID)
		if err != nil {
			return nil, false, err
		}

		qty := items[oldIdx].Qty
		if dup := indexOf(items, newID); dup >= 0 {
			qty += items[dup].Qty
			items = slices.Delete(items, dup, dup+1)
			oldIdx = indexOf(items, oldID)
		}
		if qty > domain.MaxCartQuantity {
			qty = domain.MaxCartQuantity
		}

		item := domain.CartItem{
			ProductID:    newID,
			Qty:          qty,
			AddedAt:      s.now().UTC(),
			Status:       domain.CartStatusReplaced,
			ReplacedFrom: oldID,
		}
		s.refresh(&item, p)
		item.Status = domain.CartStatusReplaced
		items[oldIdx] = item

		replaced = item
		return items, true, nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	s.events.Publish(ctx, domain.EventCartRemove, userID, map[string]any{"product_id": oldID, "replaced_by": newID})
	s.events.Publish(ctx, domain.EventCartAdd, userID, map[string]any{"product_id": newID, "qty": replaced.Qty})
	return replaced, nil
}

// Checkout returns purchase links for every line that can be bought now
func (s *CartService) Checkout(ctx context.Context, userID string) ([]domain.CheckoutLink, error) {
	view, err := s.View(ctx, userID)
	if err != nil {
		return nil, err
	}

	links := make([]domain.CheckoutLink, 0, len(view.Items))
	for _, item := range view.Items {
		if item.Status == domain.CartStatusOOS || item.AffiliateURL == "" {
			continue
		}
		links = append(links, domain.CheckoutLink{
			ProductID:    item.ProductID,
			Qty:          item.Qty,
			SourceKind:   item.SourceKind,
			AffiliateURL: item.AffiliateURL,
		})
	}
	slices.SortStableFunc(links, func(a, b domain.CheckoutLink) int {
		return b.SourceKind.Priority() - a.SourceKind.Priority()
	})

	if len(links) > 0 {
		s.events.Publish(ctx, domain.EventCartCheckout, userID, map[string]any{"links": len(links)})
	}
	return links, nil
}

func (s *CartService) lookup(productID string) (domain.Product, error) {
	p, ok := s.catalog.Snapshot().Get(productID)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return p, nil
}

// refresh copies the catalog snapshot fields onto a cart line and sets its
// status from current availability; a replaced line stays replaced while
// it is in stock.
func (s *CartService) refresh(item *domain.CartItem, p domain.Product) {
	src, _ := s.resolver.Resolve(p)

	item.Category = p.Category
	item.ShadeID = p.ShadeID
	item.Undertone = p.EffectiveUndertone()
	item.Title = p.Title
	item.Price = displayPrice(p, src)
	item.Currency = p.Currency
	item.SourceKind = src.Kind
	item.AffiliateURL = src.URL
	if src.URL != "" {
		if link, err := s.linker.Link(src.URL); err == nil {
			item.AffiliateURL = link
		} else {
			log.Error().Err(err).Str("product_id", p.ID).Msg("Cannot build affiliate link for cart item")
		}
	}

	switch {
	case !s.resolver.Available(p):
		item.Status = domain.CartStatusOOS
	case item.Status != domain.CartStatusReplaced:
		item.Status = domain.CartStatusOK
	}
}

// alternatives ranks in-stock products of the line's category that share
// its undertone bucket, adjacent shades first. Only when the bucket has
// nothing in stock does it widen to the rest of the category, and even
// then a conflicting undertone is never offered.
func (s *CartService) alternatives(snap domain.CatalogSnapshot, item domain.CartItem, profile domain.UserProfile) []string {
	if item.Category == "" {
		return nil
	}

	var neighbors map[string]bool
	if s.shades != nil && item.ShadeID != "" {
		neighbors = toSet(s.shades.GetShadeNeighbors(item.ShadeID))
	}

	if profile.Undertone == "" && item.Undertone != domain.UndertoneAny {
		profile.Undertone = item.Undertone
	}

	var bucket, wider []domain.Product
	for _, p := range snap.ByCategory(item.Category) {
		if p.ID == item.ProductID || !s.resolver.Available(p) {
			continue
		}
		if src, ok := s.resolver.Resolve(p); ok && src.URL == "" {
			continue
		}
		switch u := p.EffectiveUndertone(); {
		case u == item.Undertone:
			bucket = append(bucket, p)
		case !undertonesConflict(item.Undertone, u):
			wider = append(wider, p)
		}
	}

	pool := bucket
	if len(pool) == 0 {
		pool = wider
	}

	ranked := s.scorer.Rank(profile, pool)
	slices.SortStableFunc(ranked, func(a, b Scored) int {
		switch an, bn := neighbors[a.Product.ShadeID], neighbors[b.Product.ShadeID]; {
		case an && !bn:
			return -1
		case bn && !an:
			return 1
		}
		return 0
	})

	n := min(s.maxAlternatives, len(ranked))
	out := make([]string, 0, n)
	for _, c := range ranked[:n] {
		out = append(out, c.Product.ID)
	}
	return out
}

// profileFor loads the user's profile for ranking alternatives. Lookup
// failures fall back to an anonymous profile.
func (s *CartService) profileFor(ctx context.Context, userID string) domain.UserProfile {
	if s.profiles == nil {
		return domain.UserProfile{UserID: userID}
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil || p == nil {
		return domain.UserProfile{UserID: userID}
	}
	return *p
}

func indexOf(items []domain.CartItem, productID string) int {
	return slices.IndexFunc(items, func(it domain.CartItem) bool {
		return it.ProductID == productID
	})
}
