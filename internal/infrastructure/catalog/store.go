package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/internal/domain"
)

type bucketKey struct {
	category  domain.Category
	undertone domain.Undertone
}

// Snapshot is one immutable catalog load with its indices. Accessors return
// fresh slices; the products themselves must be treated as read-only.
type Snapshot struct {
	version    uint64
	products   []domain.Product
	byID       map[string]int
	byCategory map[domain.Category][]int
	byBucket   map[bucketKey][]int
}

// NewSnapshot indexes products in the given order
func NewSnapshot(version uint64, products []domain.Product) *Snapshot {
	s := &Snapshot{
		version:    version,
		products:   products,
		byID:       make(map[string]int, len(products)),
		byCategory: make(map[domain.Category][]int),
		byBucket:   make(map[bucketKey][]int),
	}
	for i, p := range products {
		s.byID[p.ID] = i
		s.byCategory[p.Category] = append(s.byCategory[p.Category], i)
		key := bucketKey{p.Category, p.EffectiveUndertone()}
		s.byBucket[key] = append(s.byBucket[key], i)
	}
	return s
}

// Get returns a product by id
func (s *Snapshot) Get(productID string) (domain.Product, bool) {
	i, ok := s.byID[productID]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// ByCategory returns products of a category in catalog order
func (s *Snapshot) ByCategory(category domain.Category) []domain.Product {
	return s.pick(s.byCategory[category])
}

// ByBucket returns products sharing a (category, undertone_match) bucket
func (s *Snapshot) ByBucket(category domain.Category, undertone domain.Undertone) []domain.Product {
	return s.pick(s.byBucket[bucketKey{category, undertone}])
}

// All returns every product in catalog order
func (s *Snapshot) All() []domain.Product {
	return slices.Clone(s.products)
}

// Version increments on every successful load
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of products
func (s *Snapshot) Len() int {
	return len(s.products)
}

func (s *Snapshot) pick(idx []int) []domain.Product {
	out := make([]domain.Product, len(idx))
	for i, j := range idx {
		out[i] = s.products[j]
	}
	return out
}

// FileSignature identifies a catalog file revision
type FileSignature struct {
	Size    int64
	ModTime time.Time
}

// Equal reports whether two signatures describe the same file revision
func (f FileSignature) Equal(other FileSignature) bool {
	return f.Size == other.Size && f.ModTime.Equal(other.ModTime)
}

// Store owns the current catalog snapshot. Selections read it under View;
// Reload swaps in a new snapshot under the write lock.
type Store struct {
	path   string
	shades domain.ShadeLookup

	mu        sync.RWMutex
	snap      *Snapshot
	signature FileSignature
}

// NewStore creates a store for the catalog at path. Call Reload before use.
func NewStore(path string, shades domain.ShadeLookup) *Store {
	return &Store{path: path, shades: shades}
}

// Path returns the catalog file location
func (s *Store) Path() string {
	return s.path
}

// Reload parses the catalog file and atomically replaces the snapshot. On
// failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) error {
	if err := domain.ContextError(ctx); err != nil {
		return err
	}

	sig, err := fileSignature(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}

	products, err := Parse(s.path, s.shades)
	if err != nil {
		return err
	}

	// Parsing is the slow part; do not commit if the caller gave up meanwhile
	if err := domain.ContextError(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var version uint64 = 1
	if s.snap != nil {
		version = s.snap.version + 1
	}
	s.snap = NewSnapshot(version, products)
	s.signature = sig
	s.mu.Unlock()

	log.Info().
		Str("path", s.path).
		Int("products", len(products)).
		Uint64("version", version).
		Msg("Catalog loaded")

	return nil
}

// ReloadIfChanged reloads only when the file size or mtime differ from the
// last successful load.
func (s *Store) ReloadIfChanged(ctx context.Context) (bool, error) {
	sig, err := fileSignature(s.path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}

	s.mu.RLock()
	unchanged := s.snap != nil && sig.Equal(s.signature)
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	if err := s.Reload(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// View runs fn against the current snapshot while holding the read lock
func (s *Store) View(fn func(snap domain.CatalogSnapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return fmt.Errorf("%w: catalog not loaded", domain.ErrCatalogLoad)
	}
	return fn(s.snap)
}

// Snapshot returns the current snapshot, or an empty one before the first load
func (s *Store) Snapshot() domain.CatalogSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return NewSnapshot(0, nil)
	}
	return s.snap
}

// Loaded reports whether a catalog has been loaded successfully
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap != nil
}

func fileSignature(path string) (FileSignature, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileSignature{}, err
	}
	return FileSignature{Size: st.Size(), ModTime: st.ModTime()}, nil
}
