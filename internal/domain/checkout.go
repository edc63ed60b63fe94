package domain

// Customer holds the validated contact and shipping details entered on the
// checkout form.
type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// CheckoutRequest is built once per checkout attempt from a cart snapshot and
// the customer form. It is handed to the payment provider and never persisted
// here; the provider owns the committed order.
type CheckoutRequest struct {
	LineItems []LineItem `json:"line_items"`
	Customer  Customer   `json:"customer"`
}

// TotalAmount returns the proposed charge for the request in cents. The
// payment provider remains the source of truth for the final amount.
func (r *CheckoutRequest) TotalAmount() int64 {
	var total int64
	for _, item := range r.LineItems {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// DroppedItem records a cart line that was removed from a checkout request
// because its product no longer resolves in the catalog.
type DroppedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// DropReasonStale marks a line dropped because the catalog no longer knows
// the product at submission time.
const DropReasonStale = "STALE_PRODUCT_REFERENCE"

// CheckoutRedirect is the outcome of a successful checkout submission: the
// provider's opaque session identifier and the hosted payment page to send
// the browser to. DroppedItems carries any lines removed during re-pricing.
type CheckoutRedirect struct {
	SessionID    string        `json:"session_id"`
	RedirectURL  string        `json:"redirect_url"`
	DroppedItems []DroppedItem `json:"dropped_items,omitempty"`
}
