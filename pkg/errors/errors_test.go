package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := InvalidInput("quantity must be positive")
	assert.Equal(t, "INVALID_INPUT: quantity must be positive", e.Error())

	wrapped := SessionCreationFailed(errors.New("dial tcp: connection refused"))
	assert.Contains(t, wrapped.Error(), "SESSION_CREATION_FAILED")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, EmptyCart(), ErrEmptyCart)
	assert.ErrorIs(t, InvalidCustomerData("email is required"), ErrInvalidCustomer)
	assert.ErrorIs(t, SessionCreationFailed(errors.New("boom")), ErrSessionCreation)
	assert.ErrorIs(t, CheckoutInProgress(), ErrConflict)
	assert.ErrorIs(t, NotFound("cart", "sess-1"), ErrNotFound)
}

func TestHTTPStatus_AppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NotFound("product", "p-1"), http.StatusNotFound},
		{InvalidInput("bad"), http.StatusBadRequest},
		{InvalidCustomerData("bad email"), http.StatusBadRequest},
		{Unauthorized("no session"), http.StatusUnauthorized},
		{Conflict("version mismatch"), http.StatusConflict},
		{CheckoutInProgress(), http.StatusConflict},
		{EmptyCart(), http.StatusUnprocessableEntity},
		{SessionCreationFailed(errors.New("x")), http.StatusBadGateway},
		{ServiceUnavailable("down"), http.StatusServiceUnavailable},
		{Internal(errors.New("x")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("submit checkout: %w", ErrEmptyCart)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))

	err = fmt.Errorf("get cart: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("mystery")))
}

func TestWrap(t *testing.T) {
	base := errors.New("redis: connection pool timeout")
	err := Wrap(base, "save cart")
	assert.EqualError(t, err, "save cart: redis: connection pool timeout")
	assert.ErrorIs(t, err, base)
}
