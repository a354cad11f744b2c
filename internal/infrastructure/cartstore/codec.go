// Package cartstore holds the swappable cart persistence backends: memory,
// one JSON file per user, and Redis.
package cartstore

import (
	"encoding/json"
	"fmt"

	"github.com/beautycare/backend/internal/domain"
)

func encodeItems(items []domain.CartItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart: %w", err)
	}
	return data, nil
}

func decodeItems(data []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return items, nil
}
