// Package identity consumes the user-identity service. Checkout only uses it
// to prefill a missing customer email for authenticated sessions; identity
// failures never block checkout (guest checkout is permitted).
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
	"github.com/adriajofre19/nidees-artplastic/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Profile is the subset of the identity service's user profile that checkout
// cares about.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client resolves authenticated user profiles over HTTP.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
}

// NewClient creates an identity service client.
func NewClient(httpClient HTTPDoer, baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// GetProfile returns the profile for the bearer token, or ErrUnauthorized if
// the token does not resolve to an authenticated user.
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("no credentials")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "identity")
	}

	var envelope struct {
		Data Profile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	return &envelope.Data, nil
}
