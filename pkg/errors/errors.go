package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the storefront error taxonomy. Services match on these
// with errors.Is; handlers map them to HTTP statuses via HTTPStatus.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
	ErrServiceUnavail  = errors.New("service unavailable")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("invalid customer data")
	ErrSessionCreation = errors.New("payment session creation failed")
)

// AppError is a structured application error carrying a stable machine code,
// a human message, and an HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// ServiceUnavailable creates a 503 error for an unreachable downstream.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// EmptyCart creates a 422 error for a checkout attempted on an empty cart.
func EmptyCart() *AppError {
	return &AppError{
		Code:    "EMPTY_CART",
		Message: "cart is empty, nothing to check out",
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrEmptyCart,
	}
}

// InvalidCustomerData creates a 400 error for a malformed checkout form.
func InvalidCustomerData(message string) *AppError {
	return &AppError{
		Code:    "INVALID_CUSTOMER_DATA",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidCustomer,
	}
}

// SessionCreationFailed creates a 502 error for a failed payment-session call.
// The wrapped error keeps the provider failure for logs; the message stays
// generic so provider internals never leak to the client.
func SessionCreationFailed(err error) *AppError {
	return &AppError{
		Code:    "SESSION_CREATION_FAILED",
		Message: "could not create a payment session, please try again",
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrSessionCreation, err),
	}
}

// CheckoutInProgress creates a 409 error for a duplicate concurrent submission.
func CheckoutInProgress() *AppError {
	return &AppError{
		Code:    "CHECKOUT_IN_PROGRESS",
		Message: "a checkout for this cart is already in progress",
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidCustomer):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSessionCreation):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
