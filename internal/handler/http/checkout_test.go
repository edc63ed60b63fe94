package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adriajofre19/nidees-artplastic/internal/catalog"
	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	"github.com/adriajofre19/nidees-artplastic/internal/identity"
	"github.com/adriajofre19/nidees-artplastic/internal/service"
	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
)

// ============================================================================
// Test doubles
// ============================================================================

type mockCheckoutGuard struct {
	mock.Mock
}

func (m *mockCheckoutGuard) Acquire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, sessionID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockCheckoutGuard) Release(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// stubCatalog resolves every requested ID to a fixed product so checkout
// re-pricing passes through unchanged.
type stubCatalog struct {
	price int64
}

func (s *stubCatalog) GetProduct(_ context.Context, productID string) (*catalog.Product, error) {
	return &catalog.Product{ID: productID, Name: "Product " + productID, UnitPrice: s.price}, nil
}

func (s *stubCatalog) GetProducts(_ context.Context, productIDs []string) (map[string]catalog.Product, error) {
	result := make(map[string]catalog.Product, len(productIDs))
	for _, id := range productIDs {
		result[id] = catalog.Product{ID: id, Name: "Product " + id, UnitPrice: s.price}
	}
	return result, nil
}

type stubPayment struct {
	err error
}

func (s *stubPayment) CreateSession(_ context.Context, _ *domain.CheckoutRequest, _, _, _ string) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return "cs_test_123", "https://pay.example.com/cs_test_123", nil
}

type stubIdentity struct{}

func (s *stubIdentity) GetProfile(_ context.Context, _ string) (*identity.Profile, error) {
	return &identity.Profile{ID: "u-1", Name: "Jane Doe", Email: "jane@example.com"}, nil
}

type checkoutHandlerFixture struct {
	repo    *mockCartRepository
	guard   *mockCheckoutGuard
	payment *stubPayment
	router  *chi.Mux
}

func setupCheckoutFixture(t *testing.T) *checkoutHandlerFixture {
	t.Helper()

	repo := new(mockCartRepository)
	guard := new(mockCheckoutGuard)
	payment := &stubPayment{}
	logger := testLogger()

	cartSvc := testCartService(repo)
	checkoutSvc := service.NewCheckoutService(
		cartSvc, guard, &stubCatalog{price: 1999}, &stubIdentity{}, payment,
		testEventProducer(), logger,
		"eur", "https://shop.example.com", 10*time.Minute,
	)

	handler := NewCheckoutHandler(checkoutSvc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(SessionIDFromHeader)

		r.Post("/", handler.Submit)
		r.Post("/outcomes/success", handler.ConfirmSuccess)
		r.Post("/outcomes/cancel", handler.ConfirmCancel)
	})

	return &checkoutHandlerFixture{repo: repo, guard: guard, payment: payment, router: r}
}

func validSubmitJSON() []byte {
	body := SubmitRequest{
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Phone:      "+34600000000",
		Address:    "Carrer Major 1",
		City:       "Girona",
		PostalCode: "17001",
	}
	b, _ := json.Marshal(body)
	return b
}

// ============================================================================
// POST /api/v1/checkout - Submit
// ============================================================================

func TestSubmit_Success(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.repo.On("Get", mock.Anything, "sess-123").Return(sampleCart(), nil)
	f.guard.On("Acquire", mock.Anything, "sess-123", 10*time.Minute).Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(validSubmitJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "cs_test_123", data["session_id"])
	assert.Equal(t, "https://pay.example.com/cs_test_123", data["redirect_url"])
	f.guard.AssertExpectations(t)
}

func TestSubmit_MissingSessionID_Returns401(t *testing.T) {
	f := setupCheckoutFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(validSubmitJSON()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmit_EmptyCart_Returns422(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.repo.On("Get", mock.Anything, "sess-123").Return(nil, apperrors.NotFound("cart", "sess-123"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(validSubmitJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMPTY_CART", resp.Error.Code)
	f.guard.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_InvalidCustomer_Returns400(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.repo.On("Get", mock.Anything, "sess-123").Return(sampleCart(), nil)

	body := []byte(`{"name":"Jane Doe","email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CUSTOMER_DATA", resp.Error.Code)
}

func TestSubmit_CheckoutInProgress_Returns409(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.repo.On("Get", mock.Anything, "sess-123").Return(sampleCart(), nil)
	f.guard.On("Acquire", mock.Anything, "sess-123", 10*time.Minute).Return(false, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(validSubmitJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CHECKOUT_IN_PROGRESS", resp.Error.Code)
}

func TestSubmit_ProviderFailure_Returns502(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.repo.On("Get", mock.Anything, "sess-123").Return(sampleCart(), nil)
	f.guard.On("Acquire", mock.Anything, "sess-123", 10*time.Minute).Return(true, nil)
	f.guard.On("Release", mock.Anything, "sess-123").Return(nil)
	f.payment.err = apperrors.SessionCreationFailed(errors.New("provider unavailable"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(validSubmitJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SESSION_CREATION_FAILED", resp.Error.Code)
	f.guard.AssertCalled(t, "Release", mock.Anything, "sess-123")
}

// ============================================================================
// POST /api/v1/checkout/outcomes/* - outcome routes
// ============================================================================

func TestConfirmSuccess_ClearsCart(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.repo.On("Delete", mock.Anything, "sess-123").Return(nil)
	f.guard.On("Release", mock.Anything, "sess-123").Return(nil)

	body := []byte(`{"session_id":"cs_test_123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/outcomes/success", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	f.repo.AssertCalled(t, "Delete", mock.Anything, "sess-123")
	f.guard.AssertExpectations(t)
}

func TestConfirmCancel_PreservesCart(t *testing.T) {
	f := setupCheckoutFixture(t)

	f.guard.On("Release", mock.Anything, "sess-123").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/outcomes/cancel", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	// The cart store is never touched on cancel.
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.guard.AssertExpectations(t)
}
