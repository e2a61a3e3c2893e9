package consumer

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/events"
)

// EventHandler is the business reaction bound to a queue. Handlers must be
// idempotent: delivery is at-least-once and a crash before ack redelivers.
//
// Return value contract:
//   - nil: the message is acknowledged. This covers both "handled" and
//     "business precondition not met" (wrong status, unknown type) — a
//     no-op is a success, not a failure.
//   - non-nil: a transient fault (local store unavailable); the message is
//     nacked with requeue so it is redelivered.
type EventHandler interface {
	HandleEvent(ctx context.Context, env events.Envelope) error
}

// ProcessDelivery dispatches one broker delivery to a handler:
//  1. Decodes the envelope from the message body.
//  2. Malformed bodies (bad JSON, missing type) are acknowledged after
//     logging — redelivering a poison message forever helps nobody.
//  3. Calls the handler; ACKs on nil, NACKs with requeue on error.
func ProcessDelivery(
	ctx context.Context,
	logger *zap.Logger,
	queue string,
	msg amqp.Delivery,
	handler EventHandler,
) {
	logger.Debug("Received message from queue",
		zap.String("queue", queue),
		zap.Uint64("delivery_tag", msg.DeliveryTag),
	)

	env, err := events.Decode(msg.Body)
	if err != nil {
		logger.Error("Discarding malformed message from queue",
			zap.String("queue", queue),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.ByteString("body", msg.Body),
			zap.Error(err),
		)
		ackMessage(logger, msg)
		return
	}

	if err := handler.HandleEvent(ctx, env); err != nil {
		logger.Error("Failed to process message from queue, requeueing",
			zap.String("queue", queue),
			zap.String("event_type", env.Type),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
		requeueMessage(logger, msg)
		return
	}

	ackMessage(logger, msg)

	logger.Debug("Message from queue processed successfully",
		zap.String("queue", queue),
		zap.String("event_type", env.Type),
		zap.Uint64("delivery_tag", msg.DeliveryTag),
	)
}

// ackMessage removes the message from the queue
func ackMessage(logger *zap.Logger, msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		logger.Error("Failed to ack message",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}

// requeueMessage returns the message to the queue for redelivery
func requeueMessage(logger *zap.Logger, msg amqp.Delivery) {
	if err := msg.Nack(false, true); err != nil {
		logger.Error("Failed to nack message",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}
