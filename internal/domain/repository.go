package domain

import "context"

// CartStore is the key-value persistence contract for carts. Get returns
// found=false when the user has no cart.
type CartStore interface {
	Get(ctx context.Context, userID string) (items []CartItem, found bool, err error)
	Put(ctx context.Context, userID string, items []CartItem) error
	Delete(ctx context.Context, userID string) error
}

// ProfileRepository stores the latest derived profile per user
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Save(ctx context.Context, profile *UserProfile) error
}

// AnalyticsSink receives fire-and-forget events. Implementations must not
// block callers for long and never report failures back.
type AnalyticsSink interface {
	Emit(ctx context.Context, event Event)
}

// ShadeLookup exposes read access to the shade normalizer
type ShadeLookup interface {
	Normalize(raw string) ShadeInfo
	ByID(shadeID string) (ShadeInfo, bool)
	GetShadeNeighbors(shadeID string) []string
	SeasonUniversals(season Season) []string
}

// CatalogSnapshot is an immutable, indexed view of one catalog load
type CatalogSnapshot interface {
	Get(productID string) (Product, bool)
	ByCategory(category Category) []Product
	ByBucket(category Category, undertone Undertone) []Product
	All() []Product
	Version() uint64
}

// CatalogReader gives consistent access to the current catalog snapshot.
// View holds the catalog read lock for the duration of fn, so a reload
// never interleaves with it.
type CatalogReader interface {
	View(fn func(snap CatalogSnapshot) error) error
	Snapshot() CatalogSnapshot
}
