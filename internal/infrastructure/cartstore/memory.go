package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/beautycare/backend/internal/domain"
)

// cartEntry is one stored cart with its expiration; a zero expiration
// never expires
type cartEntry struct {
	data       []byte
	expiration time.Time
}

func (e cartEntry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// MemoryStore is a thread-safe in-memory cart store with optional TTL.
// Carts are stored encoded so callers never share slices with the store.
type MemoryStore struct {
	data  map[string]cartEntry
	mutex sync.RWMutex
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates an in-memory store. A positive ttl expires carts
// that have not been written for that long.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]cartEntry),
		ttl:  ttl,
		stop: make(chan struct{}),
	}

	if ttl > 0 {
		go store.cleanupExpired(cleanupInterval(ttl))
	}

	return store
}

// Get retrieves a user's cart
func (s *MemoryStore) Get(ctx context.Context, userID string) ([]domain.CartItem, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mutex.RLock()
	entry, exists := s.data[userID]
	s.mutex.RUnlock()

	if !exists || entry.expired(time.Now()) {
		return nil, false, nil
	}

	items, err := decodeItems(entry.data)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// Put replaces a user's cart
func (s *MemoryStore) Put(ctx context.Context, userID string, items []domain.CartItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeItems(items)
	if err != nil {
		return err
	}

	entry := cartEntry{data: data}
	if s.ttl > 0 {
		entry.expiration = time.Now().Add(s.ttl)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[userID] = entry
	return nil
}

// Delete removes a user's cart
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.data, userID)
	return nil
}

// Close stops the expiry goroutine
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.removeExpired(time.Now())
		}
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for key, entry := range s.data {
		if entry.expired(now) {
			delete(s.data, key)
		}
	}
}

// Size returns the number of stored carts, expired ones included
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// cleanupInterval sweeps ten times per ttl, at most every 10 minutes
func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 10
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
