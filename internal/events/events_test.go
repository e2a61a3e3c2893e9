package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		body := []byte(`{"type":"APPOINTMENT_CREATED","payload":{"id":7,"userId":3}}`)

		env, err := Decode(body)

		require.NoError(t, err)
		assert.Equal(t, TypeAppointmentCreated, env.Type)

		var payload AppointmentCreated
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, uint(7), payload.ID)
		assert.Equal(t, uint(3), payload.UserID)
	})

	t.Run("missing type is rejected", func(t *testing.T) {
		_, err := Decode([]byte(`{"payload":{"id":7}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing a type")
	})

	t.Run("empty type is rejected", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"","payload":{}}`))
		require.Error(t, err)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		_, err := Decode([]byte(`not json at all`))
		require.Error(t, err)
	})
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeWorkOrderUpdated, WorkOrderUpdated{
		ID:         55,
		Status:     "completed",
		UserID:     3,
		TotalPrice: 120.0,
	})
	require.NoError(t, err)

	body, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, TypeWorkOrderUpdated, decoded.Type)

	var payload WorkOrderUpdated
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, uint(55), payload.ID)
	assert.Equal(t, "completed", payload.Status)
	assert.Equal(t, 120.0, payload.TotalPrice)
}
