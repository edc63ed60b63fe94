package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	"github.com/adriajofre19/nidees-artplastic/internal/service"
	"github.com/adriajofre19/nidees-artplastic/pkg/httputil"
)

// CheckoutHandler handles HTTP requests for checkout submission and the
// outcome routes the payment provider redirects back to.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// SubmitRequest is the JSON request body for submitting a checkout. Field
// validation happens in the service so the identity prefill can run first.
type SubmitRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// OutcomeRequest is the JSON request body for the outcome routes. The provider
// session ID comes from the success redirect's query string, relayed by the
// frontend.
type OutcomeRequest struct {
	ProviderSessionID string `json:"session_id"`
}

// SubmitResponse is the JSON shape of a successful checkout submission.
type SubmitResponse struct {
	SessionID    string               `json:"session_id"`
	RedirectURL  string               `json:"redirect_url"`
	DroppedItems []domain.DroppedItem `json:"dropped_items,omitempty"`
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "X-Session-ID header is required"},
		})
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	input := service.CustomerInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
	}

	redirect, err := h.service.SubmitCheckout(r.Context(), sessionID, bearerToken(r), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: SubmitResponse{
		SessionID:    redirect.SessionID,
		RedirectURL:  redirect.RedirectURL,
		DroppedItems: redirect.DroppedItems,
	}})
}

// ConfirmSuccess handles POST /api/v1/checkout/outcomes/success
func (h *CheckoutHandler) ConfirmSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "X-Session-ID header is required"},
		})
		return
	}

	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := h.service.ConfirmSuccess(r.Context(), sessionID, req.ProviderSessionID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "completed"}})
}

// ConfirmCancel handles POST /api/v1/checkout/outcomes/cancel
func (h *CheckoutHandler) ConfirmCancel(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "X-Session-ID header is required"},
		})
		return
	}

	if err := h.service.ConfirmCancel(r.Context(), sessionID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cancelled"}})
}
