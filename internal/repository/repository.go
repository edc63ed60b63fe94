package repository

import (
	"context"
	"time"

	"github.com/adriajofre19/nidees-artplastic/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
// Carts are keyed by the browser session ID.
type CartRepository interface {
	// Get retrieves a cart by its session ID.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists a cart to the store, overwriting any existing cart for the session.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion persists the cart only if the stored version still equals
	// expectedVersion (0 means the cart must not exist yet). On success the
	// stored version is incremented. Returns false without error on a version
	// conflict.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes a cart from the store by session ID. Deleting an absent
	// cart is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// CheckoutGuard tracks at-most-one-in-flight checkout submissions per session.
type CheckoutGuard interface {
	// Acquire claims the in-flight slot for the session. Returns false if a
	// submission is already pending. The TTL bounds how long a crashed
	// submission can hold the slot.
	Acquire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)

	// Release frees the in-flight slot. Releasing an unclaimed slot is a no-op.
	Release(ctx context.Context, sessionID string) error
}
