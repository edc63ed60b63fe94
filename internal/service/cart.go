package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	"github.com/adriajofre19/nidees-artplastic/internal/event"
	"github.com/adriajofre19/nidees-artplastic/internal/repository"
	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct items allowed in a cart.
	MaxItemsPerCart = 50
	// MaxPriceCents is the maximum price in cents (100,000.00) allowed per item.
	MaxPriceCents = 100_000_00

	// saveAttempts bounds the read-modify-write retry loop on version
	// conflicts, so two rapid mutations of the same cart both land instead
	// of one surfacing a conflict to the caller.
	saveAttempts = 3
)

// AddItemInput holds the parameters for adding an item to the cart. Quantity
// is not an input: adding an already-present product increments its quantity
// by one.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	ImageURL  string `json:"image_url"`
}

// Subscriber is notified synchronously after every successful cart mutation
// with the session ID and a snapshot of the new cart state. Notifications run
// on the mutating goroutine, so in-process observers never see a stale cart.
type Subscriber func(sessionID string, snapshot *domain.Cart)

// CartService implements the business logic for cart operations. Carts are
// scoped to the browser session and persisted with a TTL.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
	currency string

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration, currency string) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
		currency: currency,
	}
}

// Subscribe registers a listener invoked synchronously after every successful
// mutation. Meant to be called during wiring, before the service handles
// requests.
func (s *CartService) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// notify fans a snapshot out to all subscribers on the calling goroutine.
func (s *CartService) notify(sessionID string, cart *domain.Cart) {
	s.mu.RLock()
	subs := s.subscribers
	s.mu.RUnlock()

	for _, sub := range subs {
		sub(sessionID, cart.Snapshot())
	}
}

// GetCart retrieves the cart for a session as an immutable snapshot. If no
// cart exists yet, returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart.Snapshot(), nil
}

// AddItem adds a product to the session's cart. If the product is already
// present its quantity is incremented by one and its display fields are
// refreshed from the input; otherwise the product is inserted with quantity 1.
// Version conflicts from concurrent mutations are retried, so rapid repeated
// adds accumulate rather than getting lost.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.UnitPrice < 0 {
		return nil, apperrors.InvalidInput("unit price must not be negative")
	}
	if input.UnitPrice > MaxPriceCents {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unit price must not exceed %d cents", MaxPriceCents))
	}

	cart, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if i := cart.FindItemIndex(input.ProductID); i >= 0 {
			if cart.Items[i].Quantity+1 > MaxQuantityPerItem {
				return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
			}
			cart.Items[i].Quantity++
			// Refresh display fields in case the catalog changed.
			cart.Items[i].Name = input.Name
			cart.Items[i].UnitPrice = input.UnitPrice
			cart.Items[i].ImageURL = input.ImageURL
			return nil
		}

		if len(cart.Items) >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		cart.Items = append(cart.Items, domain.LineItem{
			ProductID: input.ProductID,
			Name:      input.Name,
			UnitPrice: input.UnitPrice,
			Quantity:  1,
			ImageURL:  input.ImageURL,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, cart)
	s.notify(sessionID, cart)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", input.ProductID),
		slog.Int("item_count", cart.ItemCount()),
	)

	return cart.Snapshot(), nil
}

// SetQuantity overwrites the quantity of an existing line item. A quantity
// of zero or less removes the line. Calling it for a product that is not in
// the cart is a silent no-op, not an error.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	changed := false
	cart, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		i := cart.FindItemIndex(productID)
		if i < 0 {
			return nil
		}
		changed = true
		if quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		} else {
			cart.Items[i].Quantity = quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publishUpdated(ctx, cart)
		s.notify(sessionID, cart)

		s.logger.InfoContext(ctx, "cart item quantity updated",
			slog.String("session_id", sessionID),
			slog.String("product_id", productID),
			slog.Int("quantity", quantity),
		)
	}

	return cart.Snapshot(), nil
}

// RemoveItem deletes a line item from the cart. Removing a product that is
// not in the cart is a silent no-op.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	return s.SetQuantity(ctx, sessionID, productID, 0)
}

// Clear removes all items from the session's cart. Clearing an already-empty
// or absent cart is a safe no-op, so the operation is idempotent.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.notify(sessionID, s.newEmptyCart(sessionID))

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sessionID),
	)

	return nil
}

// mutate runs a read-modify-write cycle under optimistic locking, retrying a
// bounded number of times on version conflicts.
func (s *CartService) mutate(ctx context.Context, sessionID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		cart, err := s.getOrCreateCart(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		expectedVersion := cart.Version

		if err := apply(cart); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		cart.UpdatedAt = now
		cart.ExpiresAt = now.Add(s.cartTTL)

		ok, err := s.repo.SaveIfVersion(ctx, cart, expectedVersion)
		if err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if ok {
			return cart, nil
		}
	}

	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}
}

// getOrCreateCart retrieves the cart for a session, creating an empty one if it does not exist.
func (s *CartService) getOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// newEmptyCart creates a new empty cart for the given session.
func (s *CartService) newEmptyCart(sessionID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     []domain.LineItem{},
		Currency:  s.currency,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
