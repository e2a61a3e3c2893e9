package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

type fakeInvoiceStore struct {
	byWorkOrder map[uint]*models.Invoice
	nextID      uint
	failWith    error
	createCalls int
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{byWorkOrder: make(map[uint]*models.Invoice)}
}

func (f *fakeInvoiceStore) CreateFromWorkOrder(_ context.Context, payload events.WorkOrderUpdated) (*models.Invoice, bool, error) {
	f.createCalls++
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	if existing, ok := f.byWorkOrder[payload.ID]; ok {
		return existing, false, nil
	}
	f.nextID++
	invoice := &models.Invoice{
		ID:          f.nextID,
		WorkOrderID: payload.ID,
		CustomerID:  payload.UserID,
		Amount:      payload.TotalPrice,
		Status:      models.InvoiceStatusPending,
		DueDate:     time.Now().UTC().AddDate(0, 0, 14),
	}
	f.byWorkOrder[payload.ID] = invoice
	return invoice, true, nil
}

func workOrderUpdatedEnvelope(t *testing.T, status string) events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(events.TypeWorkOrderUpdated, events.WorkOrderUpdated{
		ID:         55,
		Status:     status,
		UserID:     3,
		TotalPrice: 120.0,
	})
	require.NoError(t, err)
	return env
}

func TestInvoiceSaga(t *testing.T) {
	t.Run("completed work order produces pending invoice", func(t *testing.T) {
		store := newFakeInvoiceStore()
		s := NewInvoiceSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), workOrderUpdatedEnvelope(t, "completed"))

		require.NoError(t, err)
		invoice := store.byWorkOrder[55]
		require.NotNil(t, invoice)
		assert.Equal(t, uint(55), invoice.WorkOrderID)
		assert.Equal(t, uint(3), invoice.CustomerID)
		assert.Equal(t, 120.0, invoice.Amount)
		assert.Equal(t, models.InvoiceStatusPending, invoice.Status)
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 14), invoice.DueDate, time.Minute)
	})

	t.Run("non-completed status is a no-op", func(t *testing.T) {
		store := newFakeInvoiceStore()
		s := NewInvoiceSaga(store, zap.NewNop())

		for _, status := range []string{"pending", "in_progress", "cancelled"} {
			err := s.HandleEvent(context.Background(), workOrderUpdatedEnvelope(t, status))
			require.NoError(t, err)
		}

		assert.Zero(t, store.createCalls)
		assert.Empty(t, store.byWorkOrder)
	})

	t.Run("duplicate delivery does not create a second invoice", func(t *testing.T) {
		store := newFakeInvoiceStore()
		s := NewInvoiceSaga(store, zap.NewNop())
		env := workOrderUpdatedEnvelope(t, "completed")

		require.NoError(t, s.HandleEvent(context.Background(), env))
		require.NoError(t, s.HandleEvent(context.Background(), env))

		assert.Len(t, store.byWorkOrder, 1)
	})

	t.Run("unknown type is acknowledged without action", func(t *testing.T) {
		store := newFakeInvoiceStore()
		s := NewInvoiceSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), events.Envelope{
			Type:    "PAYMENT_RECEIVED",
			Payload: []byte(`{}`),
		})

		require.NoError(t, err)
		assert.Zero(t, store.createCalls)
	})

	t.Run("malformed payload is acknowledged after logging", func(t *testing.T) {
		store := newFakeInvoiceStore()
		s := NewInvoiceSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), events.Envelope{
			Type:    events.TypeWorkOrderUpdated,
			Payload: []byte(`[broken`),
		})

		require.NoError(t, err)
		assert.Empty(t, store.byWorkOrder)
	})

	t.Run("store failure propagates for redelivery", func(t *testing.T) {
		store := newFakeInvoiceStore()
		store.failWith = errors.New("store unavailable")
		s := NewInvoiceSaga(store, zap.NewNop())

		err := s.HandleEvent(context.Background(), workOrderUpdatedEnvelope(t, "completed"))

		require.Error(t, err)
	})
}
