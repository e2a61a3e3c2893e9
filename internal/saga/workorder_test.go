package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

// fakeWorkOrderStore dedupes on appointment id like the real store's unique
// index does.
type fakeWorkOrderStore struct {
	byAppointment map[uint]*models.WorkOrder
	nextID        uint
	failWith      error
	createCalls   int
}

func newFakeWorkOrderStore() *fakeWorkOrderStore {
	return &fakeWorkOrderStore{byAppointment: make(map[uint]*models.WorkOrder)}
}

func (f *fakeWorkOrderStore) CreateFromAppointment(_ context.Context, payload events.AppointmentCreated) (*models.WorkOrder, bool, error) {
	f.createCalls++
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	if existing, ok := f.byAppointment[payload.ID]; ok {
		return existing, false, nil
	}
	f.nextID++
	workOrder := &models.WorkOrder{
		ID:              f.nextID,
		AppointmentID:   payload.ID,
		UserID:          payload.UserID,
		VehicleID:       payload.VehicleID,
		ServiceCenterID: payload.ServiceCenterID,
		Title:           payload.Notes,
		Status:          models.WorkOrderStatusPending,
	}
	f.byAppointment[payload.ID] = workOrder
	return workOrder, true, nil
}

func appointmentCreatedEnvelope(t *testing.T) events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(events.TypeAppointmentCreated, events.AppointmentCreated{
		ID:              7,
		UserID:          3,
		VehicleID:       9,
		ServiceCenterID: 1,
		Notes:           "oil change",
	})
	require.NoError(t, err)
	return env
}

func TestWorkOrderSaga(t *testing.T) {
	t.Run("appointment created produces pending work order", func(t *testing.T) {
		store := newFakeWorkOrderStore()
		s := NewWorkOrderSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), appointmentCreatedEnvelope(t))

		require.NoError(t, err)
		workOrder := store.byAppointment[7]
		require.NotNil(t, workOrder)
		assert.Equal(t, uint(7), workOrder.AppointmentID)
		assert.Equal(t, uint(3), workOrder.UserID)
		assert.Equal(t, uint(9), workOrder.VehicleID)
		assert.Equal(t, uint(1), workOrder.ServiceCenterID)
		assert.Equal(t, models.WorkOrderStatusPending, workOrder.Status)
		assert.Equal(t, "oil change", workOrder.Title)
	})

	t.Run("duplicate delivery does not create a second work order", func(t *testing.T) {
		store := newFakeWorkOrderStore()
		s := NewWorkOrderSaga(store, zap.NewNop())
		env := appointmentCreatedEnvelope(t)

		require.NoError(t, s.HandleEvent(context.Background(), env))
		require.NoError(t, s.HandleEvent(context.Background(), env))

		assert.Len(t, store.byAppointment, 1)
		assert.Equal(t, 2, store.createCalls)
	})

	t.Run("unknown type is acknowledged without action", func(t *testing.T) {
		store := newFakeWorkOrderStore()
		s := NewWorkOrderSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), events.Envelope{
			Type:    "VEHICLE_REGISTERED",
			Payload: []byte(`{"id":1}`),
		})

		require.NoError(t, err)
		assert.Zero(t, store.createCalls)
	})

	t.Run("malformed payload is acknowledged after logging", func(t *testing.T) {
		store := newFakeWorkOrderStore()
		s := NewWorkOrderSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), events.Envelope{
			Type:    events.TypeAppointmentCreated,
			Payload: []byte(`{"id":"not-a-number"`),
		})

		require.NoError(t, err)
		assert.Zero(t, len(store.byAppointment))
	})

	t.Run("store failure propagates for redelivery", func(t *testing.T) {
		store := newFakeWorkOrderStore()
		store.failWith = errors.New("store unavailable")
		s := NewWorkOrderSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), appointmentCreatedEnvelope(t))

		require.Error(t, err)
	})
}
