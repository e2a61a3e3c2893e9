package publisher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/rabbitmq"
)

// Publisher emits event envelopes to named exchanges over the process's
// shared broker connection. Fire-and-forget at the business layer: a failed
// publish is returned to the caller and logged loudly, because by then the
// local write has already committed (the dual-write gap).
type Publisher struct {
	conn   *rabbitmq.Connection
	logger *zap.Logger

	mu       sync.Mutex
	declared map[string]bool
}

// NewPublisher creates a publisher on the given connection.
func NewPublisher(conn *rabbitmq.Connection, logger *zap.Logger) *Publisher {
	return &Publisher{
		conn:     conn,
		logger:   logger,
		declared: make(map[string]bool),
	}
}

// Publish declares the exchange once per process lifetime and emits the
// envelope. Envelope order within this connection is preserved by the broker.
func (p *Publisher) Publish(ctx context.Context, exchange string, env events.Envelope) error {
	if err := p.ensureExchange(exchange); err != nil {
		return err
	}

	body, err := env.Encode()
	if err != nil {
		return err
	}

	if err := p.conn.PublishMessage(ctx, exchange, "", body); err != nil {
		// Operational alert: the producing service committed a local write
		// that this event was supposed to announce.
		p.logger.Error("Failed to publish event",
			zap.String("exchange", exchange),
			zap.String("event_type", env.Type),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish %s to %s: %w", env.Type, exchange, err)
	}

	p.logger.Debug("Published event",
		zap.String("exchange", exchange),
		zap.String("event_type", env.Type),
	)
	return nil
}

func (p *Publisher) ensureExchange(exchange string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.declared[exchange] {
		return nil
	}
	if err := p.conn.DeclareExchange(exchange); err != nil {
		return err
	}
	p.declared[exchange] = true
	return nil
}
