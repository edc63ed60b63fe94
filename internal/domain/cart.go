package domain

import "time"

// Cart represents a shopping cart scoped to a browser session.
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// LineItem represents a single product entry in the cart. A cart holds at
// most one line item per product; quantity is always >= 1 (removing an item
// deletes the line rather than leaving a zero-quantity entry).
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Subtotal calculates the total price of all items in the cart (in cents).
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of items in the cart (sum of quantities).
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the cart item matching the given product ID.
// Returns -1 if not found. This provides O(n) search but centralizes the logic for easier optimization later.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Snapshot returns a deep copy of the cart. Consumers iterating a snapshot
// are never affected by concurrent mutations of the live cart.
func (c *Cart) Snapshot() *Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
