package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/config"
	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

// EventPublisher is the broker-facing side of the relay.
type EventPublisher interface {
	Publish(ctx context.Context, exchange string, env events.Envelope) error
}

// Relay polls the outbox and publishes pending rows oldest-first. A row is
// marked published only after the broker accepts it, so emission is
// at-least-once; a failed publish stays pending and is retried next tick.
type Relay struct {
	store     Store
	publisher EventPublisher
	logger    *zap.Logger
	cfg       config.OutboxConfig
}

func NewRelay(store Store, publisher EventPublisher, cfg config.OutboxConfig, logger *zap.Logger) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start runs the relay loop until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("Outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
	)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			r.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch drains one batch of pending rows.
func (r *Relay) ProcessBatch(ctx context.Context) {
	pending, err := r.store.FetchPending(ctx, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error("Failed to fetch pending outbox events", zap.Error(err))
		return
	}

	if len(pending) == 0 {
		return
	}

	r.logger.Debug("Processing outbox batch", zap.Int("count", len(pending)))

	for _, record := range pending {
		r.processRecord(ctx, record)
	}
}

func (r *Relay) processRecord(ctx context.Context, record models.OutboxEvent) {
	env := events.Envelope{
		Type:    record.EventType,
		Payload: json.RawMessage(record.Payload),
	}

	if err := r.publisher.Publish(ctx, record.Exchange, env); err != nil {
		// Operational alert: a committed state change has not reached the
		// broker yet. The row stays pending and is retried next tick.
		r.logger.Error("Failed to publish outbox event, will retry",
			zap.String("outbox_id", record.ID.String()),
			zap.String("exchange", record.Exchange),
			zap.String("event_type", record.EventType),
			zap.Error(err),
		)
		if recErr := r.store.RecordFailure(ctx, record.ID.String(), err); recErr != nil {
			r.logger.Error("Failed to record outbox failure",
				zap.String("outbox_id", record.ID.String()),
				zap.Error(recErr),
			)
		}
		return
	}

	if err := r.store.MarkPublished(ctx, record.ID.String()); err != nil {
		// The publish succeeded but the row is still pending: the next tick
		// republishes it. At-least-once, consumers dedupe on the
		// originating key.
		r.logger.Error("Failed to mark outbox event published",
			zap.String("outbox_id", record.ID.String()),
			zap.Error(err),
		)
		return
	}

	r.logger.Debug("Outbox event published",
		zap.String("outbox_id", record.ID.String()),
		zap.String("exchange", record.Exchange),
		zap.String("event_type", record.EventType),
	)
}
