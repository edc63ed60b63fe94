// Package payment talks to the external payment-session provider. The
// provider is opaque: the only contract this core relies on is "submit line
// items and customer details, get a session id and a hosted payment URL back".
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adriajofre19/nidees-artplastic/internal/domain"
	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
	"github.com/adriajofre19/nidees-artplastic/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client creates checkout sessions against the payment provider.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a payment provider client. timeout bounds each session
// creation call so an unresponsive provider surfaces as a failure instead of
// hanging the checkout.
func NewClient(httpClient HTTPDoer, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

type sessionLineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
	ImageURL   string `json:"image_url,omitempty"`
}

type sessionCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type createSessionRequest struct {
	LineItems  []sessionLineItem `json:"line_items"`
	Customer   sessionCustomer   `json:"customer"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateSession submits a checkout request to the provider and returns the
// opaque session id and the hosted payment page URL. A provider error, a
// timeout, or a response without a session id all surface as
// SESSION_CREATION_FAILED; the caller's cart is never touched here.
func (c *Client) CreateSession(ctx context.Context, checkout *domain.CheckoutRequest, currency, successURL, cancelURL string) (sessionID, redirectURL string, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := createSessionRequest{
		LineItems:  make([]sessionLineItem, 0, len(checkout.LineItems)),
		Customer: sessionCustomer{
			Email: checkout.Customer.Email,
			Name:  checkout.Customer.Name,
			Phone: checkout.Customer.Phone,
		},
		Currency:   currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
	for _, item := range checkout.LineItems {
		li := sessionLineItem{
			Name:       item.Name,
			UnitAmount: item.UnitPrice,
			Quantity:   item.Quantity,
		}
		// Providers reject non-https image references; omit them rather
		// than fail the whole session.
		if strings.HasPrefix(item.ImageURL, "https://") {
			li.ImageURL = item.ImageURL
		}
		req.LineItems = append(req.LineItems, li)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("create session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return "", "", apperrors.SessionCreationFailed(fmt.Errorf("call payment provider: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", apperrors.SessionCreationFailed(httpclient.ParseResponseError(resp, "payment provider"))
	}

	var sessionResp createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return "", "", apperrors.SessionCreationFailed(fmt.Errorf("decode session response: %w", err))
	}

	if sessionResp.SessionID == "" {
		return "", "", apperrors.SessionCreationFailed(fmt.Errorf("provider returned no session id"))
	}

	c.logger.InfoContext(ctx, "payment session created",
		slog.String("provider_session_id", sessionResp.SessionID),
		slog.Int("line_items", len(req.LineItems)),
	)

	return sessionResp.SessionID, sessionResp.URL, nil
}
