package events

import (
	"encoding/json"
	"fmt"
)

// Event type tags carried in the envelope. Immutable once published.
const (
	TypeAppointmentCreated = "APPOINTMENT_CREATED"
	TypeWorkOrderUpdated   = "WORKORDER_UPDATED"
)

// Exchange names. One durable fanout exchange per producing domain.
const (
	ExchangeBooking   = "booking_events"
	ExchangeWorkOrder = "workorder_events"
)

// Queue names. Durable and named so no envelope is lost while a consumer is offline.
const (
	QueueWorkOrderBooking = "workorder_booking_events"
	QueueFinanceWorkOrder = "finance_workorder_events"
)

// Envelope is the wire format of every event on the broker:
// {"type": "<EVENT_NAME>", "payload": {...}}.
// The payload carries every field a downstream handler needs to construct
// its own local entity; consumers never fetch back from the producer.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope builds an envelope from an event type and a payload struct.
func NewEnvelope(eventType string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return Envelope{Type: eventType, Payload: raw}, nil
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return body, nil
}

// Decode parses a broker message body into an envelope.
// Bodies without a recognized type field are rejected; the consumer
// acknowledges them without processing.
func Decode(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope is missing a type field")
	}
	return env, nil
}

// AppointmentCreated is the payload of TypeAppointmentCreated on ExchangeBooking.
type AppointmentCreated struct {
	ID              uint   `json:"id"`
	UserID          uint   `json:"userId"`
	VehicleID       uint   `json:"vehicleId"`
	ServiceCenterID uint   `json:"serviceCenterId"`
	Notes           string `json:"notes"`
}

// WorkOrderUpdated is the payload of TypeWorkOrderUpdated on ExchangeWorkOrder.
type WorkOrderUpdated struct {
	ID         uint    `json:"id"`
	Status     string  `json:"status"`
	UserID     uint    `json:"userId"`
	TotalPrice float64 `json:"totalPrice"`
}
