package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	pkgkafka "github.com/adriajofre19/nidees-artplastic/pkg/kafka"
)

// Kafka topic constants for cart and checkout domain events.
const (
	TopicCartUpdated            = "storefront.cart.updated"
	TopicCartCleared            = "storefront.cart.cleared"
	TopicCheckoutSessionCreated = "storefront.checkout.session_created"
	TopicCheckoutCompleted      = "storefront.checkout.completed"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string         `json:"session_id"`
	Items     []LineItemData `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  int64          `json:"subtotal"`
	Currency  string         `json:"currency"`
}

// LineItemData is the item payload within cart events.
type LineItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// CheckoutSessionCreatedData is the payload for a checkout.session_created event.
type CheckoutSessionCreatedData struct {
	SessionID         string `json:"session_id"`
	ProviderSessionID string `json:"provider_session_id"`
	ItemCount         int    `json:"item_count"`
	TotalAmount       int64  `json:"total_amount"`
	Currency          string `json:"currency"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	SessionID         string `json:"session_id"`
	ProviderSessionID string `json:"provider_session_id"`
}

// Producer publishes cart and checkout domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]LineItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = LineItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		SessionID: cart.SessionID,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		Currency:  cart.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.SessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", cart.SessionID),
		slog.Int("item_count", cart.ItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	data := CartClearedData{SessionID: sessionID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)

	return nil
}

// PublishCheckoutSessionCreated publishes a checkout.session_created event.
func (p *Producer) PublishCheckoutSessionCreated(ctx context.Context, sessionID, providerSessionID, currency string, req *domain.CheckoutRequest) error {
	data := CheckoutSessionCreatedData{
		SessionID:         sessionID,
		ProviderSessionID: providerSessionID,
		ItemCount:         len(req.LineItems),
		TotalAmount:       req.TotalAmount(),
		Currency:          currency,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutSessionCreated, sessionID, AggregateTypeCheckout, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create checkout.session_created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutSessionCreated, event); err != nil {
		return fmt.Errorf("publish checkout.session_created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.session_created event",
		slog.String("session_id", sessionID),
		slog.String("provider_session_id", providerSessionID),
	)

	return nil
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, sessionID, providerSessionID string) error {
	data := CheckoutCompletedData{
		SessionID:         sessionID,
		ProviderSessionID: providerSessionID,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutCompleted, sessionID, AggregateTypeCheckout, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create checkout.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutCompleted, event); err != nil {
		return fmt.Errorf("publish checkout.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.completed event",
		slog.String("session_id", sessionID),
		slog.String("provider_session_id", providerSessionID),
	)

	return nil
}
