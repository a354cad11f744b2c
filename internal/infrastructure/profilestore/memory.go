// Package profilestore keeps the latest derived profile per user.
package profilestore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/beautycare/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory profile repository
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
}

// NewMemoryStore creates an empty profile store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]domain.UserProfile)}
}

// Get returns a copy of the stored profile or domain.ErrProfileNotFound
func (s *MemoryStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}
	p.Concerns = slices.Clone(p.Concerns)
	return &p, nil
}

// Save stores a copy of profile under its user id
func (s *MemoryStore) Save(ctx context.Context, profile *domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("%w: profile without user id", domain.ErrInvalidRequest)
	}

	p := *profile
	p.Concerns = slices.Clone(p.Concerns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}
