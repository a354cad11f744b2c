package profilestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beautycare/backend/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	profile := &domain.UserProfile{
		UserID:   "u1",
		SkinType: domain.SkinDry,
		Concerns: []domain.Concern{domain.ConcernDryness},
	}
	require.NoError(t, store.Save(ctx, profile))

	profile.Concerns[0] = domain.ConcernAcne

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.SkinDry, got.SkinType)
	assert.Equal(t, []domain.Concern{domain.ConcernDryness}, got.Concerns)

	got.SkinType = domain.SkinOily
	again, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.SkinDry, again.SkinType)
}

func TestMemoryStore_SaveValidation(t *testing.T) {
	store := NewMemoryStore()

	tests := []struct {
		name    string
		profile *domain.UserProfile
	}{
		{"nil profile", nil},
		{"empty user id", &domain.UserProfile{SkinType: domain.SkinDry}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Save(context.Background(), tt.profile)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}
