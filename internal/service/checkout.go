package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adriajofre19/nidees-artplastic/internal/catalog"
	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	"github.com/adriajofre19/nidees-artplastic/internal/event"
	"github.com/adriajofre19/nidees-artplastic/internal/identity"
	"github.com/adriajofre19/nidees-artplastic/internal/repository"
	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
	pkgvalidator "github.com/adriajofre19/nidees-artplastic/pkg/validator"
)

// PaymentClient creates checkout sessions against the payment provider.
type PaymentClient interface {
	CreateSession(ctx context.Context, req *domain.CheckoutRequest, currency, successURL, cancelURL string) (sessionID, redirectURL string, err error)
}

// IdentityClient resolves authenticated user profiles. Used only to prefill
// a missing customer email; never a gate on checkout.
type IdentityClient interface {
	GetProfile(ctx context.Context, token string) (*identity.Profile, error)
}

// CustomerInput holds the checkout form fields.
type CustomerInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// CheckoutService orchestrates checkout submission and the outcome-route
// reconciliation. It never persists checkout sessions; the payment provider
// owns the committed order.
type CheckoutService struct {
	carts    *CartService
	guard    repository.CheckoutGuard
	catalog  catalog.Lookup
	identity IdentityClient
	payment  PaymentClient
	producer *event.Producer
	logger   *slog.Logger

	currency      string
	publicBaseURL string
	guardTTL      time.Duration
}

// NewCheckoutService creates a new checkout orchestrator. identityClient may
// be nil when no identity service is configured; guest checkout still works.
func NewCheckoutService(
	carts *CartService,
	guard repository.CheckoutGuard,
	catalogLookup catalog.Lookup,
	identityClient IdentityClient,
	paymentClient PaymentClient,
	producer *event.Producer,
	logger *slog.Logger,
	currency, publicBaseURL string,
	guardTTL time.Duration,
) *CheckoutService {
	return &CheckoutService{
		carts:         carts,
		guard:         guard,
		catalog:       catalogLookup,
		identity:      identityClient,
		payment:       paymentClient,
		producer:      producer,
		logger:        logger,
		currency:      currency,
		publicBaseURL: publicBaseURL,
		guardTTL:      guardTTL,
	}
}

// SubmitCheckout builds exactly one CheckoutRequest from the current cart
// snapshot and the customer form, and exchanges it for a payment session.
// The cart is never cleared here; only the confirmed success route clears it,
// so a failed or abandoned payment flow always returns to an intact cart.
func (s *CheckoutService) SubmitCheckout(ctx context.Context, sessionID, authToken string, input CustomerInput) (*domain.CheckoutRedirect, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	// Snapshot first: an empty cart is rejected before any network call.
	snapshot, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	if snapshot.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	// Prefill a missing email from the authenticated identity, when present.
	// Identity failures never block checkout.
	if input.Email == "" && authToken != "" && s.identity != nil {
		profile, err := s.identity.GetProfile(ctx, authToken)
		if err != nil {
			s.logger.WarnContext(ctx, "identity lookup failed, continuing as guest",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		} else {
			input.Email = profile.Email
			if input.Name == "" {
				input.Name = profile.Name
			}
		}
	}

	if err := pkgvalidator.Validate(input); err != nil {
		var verr *pkgvalidator.ValidationError
		if errors.As(err, &verr) {
			return nil, apperrors.InvalidCustomerData(verr.Error())
		}
		return nil, fmt.Errorf("validate customer: %w", err)
	}

	// Re-price from the catalog at submission time. Prices carried in the
	// cart are display hints; the catalog is the authority for what this
	// core proposes to charge. Products the catalog no longer knows are
	// dropped with a warning rather than blocking checkout.
	req, dropped, err := s.buildRequest(ctx, snapshot, input)
	if err != nil {
		return nil, err
	}
	if len(req.LineItems) == 0 {
		return nil, apperrors.EmptyCart()
	}

	// At most one submission in flight per session. The TTL bounds a
	// submission that never reaches an outcome route.
	acquired, err := s.guard.Acquire(ctx, sessionID, s.guardTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire checkout guard: %w", err)
	}
	if !acquired {
		return nil, apperrors.CheckoutInProgress()
	}

	providerSessionID, redirectURL, err := s.payment.CreateSession(ctx, req, s.currency, s.successURL(), s.cancelURL())
	if err != nil {
		// Re-enable resubmission; the cart is untouched.
		if relErr := s.guard.Release(ctx, sessionID); relErr != nil {
			s.logger.ErrorContext(ctx, "failed to release checkout guard",
				slog.String("session_id", sessionID),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, fmt.Errorf("create payment session: %w", err)
	}

	if err := s.producer.PublishCheckoutSessionCreated(ctx, sessionID, providerSessionID, s.currency, req); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.session_created event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", sessionID),
		slog.String("provider_session_id", providerSessionID),
		slog.Int("line_items", len(req.LineItems)),
		slog.Int("dropped_items", len(dropped)),
		slog.Int64("total_amount", req.TotalAmount()),
	)

	return &domain.CheckoutRedirect{
		SessionID:    providerSessionID,
		RedirectURL:  redirectURL,
		DroppedItems: dropped,
	}, nil
}

// ConfirmSuccess handles the provider's success redirect: the cart is cleared
// exactly once (clearing an empty cart is a safe no-op, so a refresh of the
// success page is idempotent) and the in-flight guard is released.
func (s *CheckoutService) ConfirmSuccess(ctx context.Context, sessionID, providerSessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart on success: %w", err)
	}

	if err := s.guard.Release(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to release checkout guard",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCheckoutCompleted(ctx, sessionID, providerSessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout confirmed",
		slog.String("session_id", sessionID),
		slog.String("provider_session_id", providerSessionID),
	)

	return nil
}

// ConfirmCancel handles the provider's cancel redirect: the cart is left
// exactly as it was before submission; only the in-flight guard is released.
func (s *CheckoutService) ConfirmCancel(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.guard.Release(ctx, sessionID); err != nil {
		return fmt.Errorf("release checkout guard: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout cancelled, cart preserved",
		slog.String("session_id", sessionID),
	)

	return nil
}

// buildRequest re-prices the snapshot against the catalog and assembles the
// checkout request, dropping stale product references.
func (s *CheckoutService) buildRequest(ctx context.Context, snapshot *domain.Cart, input CustomerInput) (*domain.CheckoutRequest, []domain.DroppedItem, error) {
	ids := make([]string, len(snapshot.Items))
	for i, item := range snapshot.Items {
		ids[i] = item.ProductID
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("re-price cart: %w", err)
	}

	req := &domain.CheckoutRequest{
		LineItems: make([]domain.LineItem, 0, len(snapshot.Items)),
		Customer: domain.Customer{
			Name:       input.Name,
			Email:      input.Email,
			Phone:      input.Phone,
			Address:    input.Address,
			City:       input.City,
			PostalCode: input.PostalCode,
		},
	}

	var dropped []domain.DroppedItem
	for _, item := range snapshot.Items {
		p, ok := products[item.ProductID]
		if !ok {
			dropped = append(dropped, domain.DroppedItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Reason:    domain.DropReasonStale,
			})
			s.logger.WarnContext(ctx, "dropping stale product reference from checkout",
				slog.String("session_id", snapshot.SessionID),
				slog.String("product_id", item.ProductID),
			)
			continue
		}

		req.LineItems = append(req.LineItems, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  p.ImageURL,
		})
	}

	return req, dropped, nil
}

func (s *CheckoutService) successURL() string {
	return s.publicBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

func (s *CheckoutService) cancelURL() string {
	return s.publicBaseURL + "/checkout/cancel"
}
