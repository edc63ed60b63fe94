// Package catalog exposes the product lookup the cart and checkout flows
// consume. The catalog is the pricing authority at checkout time; prices
// carried in the cart are display hints only.
package catalog

import (
	"context"
)

/// Product is the subset of catalog data the cart needs: identity, display
// name, current unit price in cents, and an image reference.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Lookup resolves products against the catalog.
type Lookup interface {
	// GetProduct returns the product for the given ID, or ErrNotFound if the
	// catalog no longer knows it.
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// GetProducts resolves a batch of product IDs in one round trip. Absent
	// IDs are simply missing from the result map, not an error; checkout
	// re-pricing treats them as stale references.
	GetProducts(ctx context.Context, productIDs []string) (map[string]Product, error)
}
