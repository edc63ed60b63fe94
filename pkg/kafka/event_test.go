package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartClearedPayload struct {
	SessionID string `json:"session_id"`
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("storefront.cart.cleared", "sess-1", "cart", "storefront", cartClearedPayload{SessionID: "sess-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "storefront.cart.cleared", e.EventType)
	assert.Equal(t, "sess-1", e.AggregateID)
	assert.Equal(t, "cart", e.AggregateType)
	assert.Equal(t, 1, e.Version)
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, time.Minute)
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	e, err := NewEvent("storefront.cart.updated", "sess-2", "cart", "storefront", cartClearedPayload{SessionID: "sess-2"})
	require.NoError(t, err)
	e.WithCorrelationID("corr-7")

	data, err := e.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, decoded.EventID)
	assert.Equal(t, "corr-7", decoded.CorrelationID)

	var payload cartClearedPayload
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "sess-2", payload.SessionID)
}
