package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customerForm struct {
	Name       string `validate:"required,min=2"`
	Email      string `validate:"required,email"`
	PostalCode string `validate:"required"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(customerForm{
		Name:       "Maria Serra",
		Email:      "maria@example.com",
		PostalCode: "08001",
	})
	assert.NoError(t, err)
}

func TestValidate_MissingFields(t *testing.T) {
	err := Validate(customerForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Name"])
	assert.Equal(t, "is required", fields["Email"])
	assert.Equal(t, "is required", fields["PostalCode"])
	assert.Contains(t, valErr.Error(), "field 'Email' is required")
}

func TestValidate_BadEmail(t *testing.T) {
	err := Validate(customerForm{Name: "Maria", Email: "not-an-email", PostalCode: "08001"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}
