package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
	"github.com/adriajofre19/nidees-artplastic/pkg/httpclient"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return NewClient(httpclient.New(cfg), srv.URL, 2*time.Second)
}

func TestGetProfile_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": Profile{ID: "user-1", Name: "Jordi Puig", Email: "jordi@example.com"},
		})
	}))
	defer srv.Close()

	p, err := testClient(t, srv).GetProfile(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, "jordi@example.com", p.Email)
}

func TestGetProfile_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty token")
	}))
	defer srv.Close()

	p, err := testClient(t, srv).GetProfile(context.Background(), "")
	assert.Nil(t, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`))
	}))
	defer srv.Close()

	p, err := testClient(t, srv).GetProfile(context.Background(), "tok-bad")
	assert.Nil(t, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
