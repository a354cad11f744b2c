package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCatalogLoad is returned when the catalog file is missing or malformed
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrProductNotFound is returned when the catalog does not know a product id
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidQuantity is returned when a cart quantity is out of range
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrSelectionEmpty is returned when no slot of any section could be covered
	ErrSelectionEmpty = errors.New("selection is empty")

	// ErrAffiliateInvalid is returned when an outbound URL fails affiliate checks
	ErrAffiliateInvalid = errors.New("affiliate link invalid")

	// ErrDeadlineExceeded is returned when an operation is cancelled or runs out of time
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidCallback is returned for malformed chat callback tokens
	ErrInvalidCallback = errors.New("invalid callback token")

	// ErrProfileNotFound is returned when no profile has been built for a user
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCartStoreUnavailable is returned when the cart persistence backend fails
	ErrCartStoreUnavailable = errors.New("cart store unavailable")
)

// ContextError converts a done context into an error matching both
// ErrDeadlineExceeded and the underlying context error. It returns nil while
// the context is still live.
func ContextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeadlineExceeded, err)
	}
	return nil
}
