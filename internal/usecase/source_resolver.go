package usecase

import (
	"slices"

	"github.com/beautycare/backend/internal/domain"
)

// SourceResolver picks the purchase source shown for a product
type SourceResolver struct{}

// NewSourceResolver creates a resolver
func NewSourceResolver() *SourceResolver {
	return &SourceResolver{}
}

// Resolve returns the best source: in-stock sources first, then by kind
// priority (goldapple > official > marketplace > international), then lower
// price, then catalog order. When every source is out of stock the
// highest-priority one is returned with InStock=false. The bool is false
// only for products without sources.
func (r *SourceResolver) Resolve(p domain.Product) (domain.Source, bool) {
	if len(p.Sources) == 0 {
		return domain.Source{}, false
	}

	idx := make([]int, len(p.Sources))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		sa, sb := p.Sources[a], p.Sources[b]
		if sa.InStock != sb.InStock {
			if sa.InStock {
				return -1
			}
			return 1
		}
		if pa, pb := sa.Kind.Priority(), sb.Kind.Priority(); pa != pb {
			return pb - pa
		}
		return sa.Price.Cmp(sb.Price)
	})

	return p.Sources[idx[0]], true
}

// Available reports whether the product can be bought right now: the
// catalog flags it in stock and its resolved source, if any, is in stock.
func (r *SourceResolver) Available(p domain.Product) bool {
	if !p.InStock {
		return false
	}
	src, ok := r.Resolve(p)
	return !ok || src.InStock
}
