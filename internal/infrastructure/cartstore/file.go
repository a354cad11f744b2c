package cartstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/beautycare/backend/internal/domain"
)

// FileStore keeps one JSON file per user under a directory. Writes go to a
// temp file that is renamed into place, so readers never see a torn cart.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path hex-encodes the user id so any id maps to a safe file name
func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(userID))+".json")
}

// Get reads a user's cart
func (s *FileStore) Get(ctx context.Context, userID string) ([]domain.CartItem, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cart: %w", err)
	}

	items, err := decodeItems(data)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// Put writes a user's cart atomically
func (s *FileStore) Put(ctx context.Context, userID string, items []domain.CartItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeItems(items)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".cart-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(userID)); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}
	return nil
}

// Delete removes a user's cart file; a missing file is not an error
func (s *FileStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(userID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
