package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutRequest_TotalAmount(t *testing.T) {
	r := &CheckoutRequest{
		LineItems: []LineItem{
			{UnitPrice: 1000, Quantity: 3},
			{UnitPrice: 500, Quantity: 1},
		},
	}
	assert.Equal(t, int64(3500), r.TotalAmount())
}

func TestCheckoutRequest_TotalAmount_Empty(t *testing.T) {
	r := &CheckoutRequest{}
	assert.Equal(t, int64(0), r.TotalAmount())
}
