package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/config"
	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

type fakeStore struct {
	pending   []models.OutboxEvent
	published []string
	failures  []string
}

func (f *fakeStore) Append(tx *gorm.DB, exchange string, env events.Envelope) error {
	return nil
}

func (f *fakeStore) FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) MarkPublished(ctx context.Context, id string) error {
	f.published = append(f.published, id)
	for i, record := range f.pending {
		if record.ID.String() == id {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) RecordFailure(ctx context.Context, id string, cause error) error {
	f.failures = append(f.failures, id)
	return nil
}

type fakePublisher struct {
	published []events.Envelope
	exchanges []string
	failWith  error
}

func (f *fakePublisher) Publish(ctx context.Context, exchange string, env events.Envelope) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.exchanges = append(f.exchanges, exchange)
	f.published = append(f.published, env)
	return nil
}

func pendingEvent(eventType, payload string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:        uuid.New(),
		Exchange:  events.ExchangeBooking,
		EventType: eventType,
		Payload:   []byte(payload),
		Status:    models.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func testRelay(store Store, pub EventPublisher) *Relay {
	return NewRelay(store, pub, config.OutboxConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
	}, zap.NewNop())
}

func TestRelayProcessBatch(t *testing.T) {
	t.Run("publishes pending rows and marks them published", func(t *testing.T) {
		first := pendingEvent(events.TypeAppointmentCreated, `{"id":7}`)
		second := pendingEvent(events.TypeAppointmentCreated, `{"id":8}`)
		store := &fakeStore{pending: []models.OutboxEvent{first, second}}
		pub := &fakePublisher{}

		relay := testRelay(store, pub)
		relay.ProcessBatch(context.Background())

		require.Len(t, pub.published, 2)
		assert.Equal(t, events.TypeAppointmentCreated, pub.published[0].Type)
		assert.JSONEq(t, `{"id":7}`, string(pub.published[0].Payload))
		assert.Equal(t, []string{first.ID.String(), second.ID.String()}, store.published)
		assert.Empty(t, store.pending)
	})

	t.Run("failed publish stays pending for the next tick", func(t *testing.T) {
		record := pendingEvent(events.TypeWorkOrderUpdated, `{"id":55}`)
		store := &fakeStore{pending: []models.OutboxEvent{record}}
		pub := &fakePublisher{failWith: errors.New("broker unreachable")}

		relay := testRelay(store, pub)
		relay.ProcessBatch(context.Background())

		assert.Empty(t, store.published)
		assert.Len(t, store.pending, 1, "row must survive for retry")
		assert.Equal(t, []string{record.ID.String()}, store.failures)

		// Broker recovers: the same row goes out on the next batch
		pub.failWith = nil
		relay.ProcessBatch(context.Background())

		assert.Equal(t, []string{record.ID.String()}, store.published)
		assert.Empty(t, store.pending)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		store := &fakeStore{}
		pub := &fakePublisher{}

		relay := testRelay(store, pub)
		relay.ProcessBatch(context.Background())

		assert.Empty(t, pub.published)
	})
}

func TestRelayStartStopsOnCancel(t *testing.T) {
	store := &fakeStore{pending: []models.OutboxEvent{pendingEvent(events.TypeAppointmentCreated, `{"id":1}`)}}
	pub := &fakePublisher{}
	relay := testRelay(store, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Start(ctx)
		close(done)
	}()

	// Let at least one tick fire, then stop
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after context cancellation")
	}

	assert.NotEmpty(t, pub.published)
}
