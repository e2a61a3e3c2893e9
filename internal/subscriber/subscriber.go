package subscriber

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/consumer"
	"github.com/autocare/servicehub/internal/rabbitmq"
)

// Subscriber binds a durable queue to an exchange and feeds every delivery
// to a registered handler until process shutdown. Prefetch is pinned to 1:
// one in-flight message per binding, so a slow handler stalls further
// delivery instead of buffering unacknowledged work in memory.
type Subscriber struct {
	conn        *rabbitmq.Connection
	logger      *zap.Logger
	exchange    string
	queue       string
	handler     consumer.EventHandler
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

// NewSubscriber creates a subscriber for one exchange/queue binding.
func NewSubscriber(conn *rabbitmq.Connection, exchange, queue string, handler consumer.EventHandler, logger *zap.Logger) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscriber{
		conn:        conn,
		logger:      logger,
		exchange:    exchange,
		queue:       queue,
		handler:     handler,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("%s-%d", queue, time.Now().Unix()),
	}
}

// Start declares the exchange and queue, binds them and begins consuming.
// The declares are idempotent, so a restart after connection loss resumes
// at the last unacknowledged delivery.
func (s *Subscriber) Start() error {
	if s.exchange == "" {
		return fmt.Errorf("exchange is required")
	}
	if s.queue == "" {
		return fmt.Errorf("queue is required")
	}

	if err := s.bind(); err != nil {
		return err
	}

	if err := s.startConsuming(); err != nil {
		return err
	}

	s.started = true
	s.logger.Info("Subscriber started and consuming messages",
		zap.String("exchange", s.exchange),
		zap.String("queue", s.queue),
		zap.String("consumer_tag", s.consumerTag),
	)
	return nil
}

// bind re-declares the durable topology and caps in-flight deliveries
func (s *Subscriber) bind() error {
	if err := s.conn.DeclareExchange(s.exchange); err != nil {
		return err
	}
	if err := s.conn.DeclareAndBindQueue(s.queue, s.exchange); err != nil {
		return err
	}
	// One message at a time per binding is the intended throttle
	if err := s.conn.SetQoS(1); err != nil {
		return err
	}
	return nil
}

// startConsuming registers the consumer and launches the processing loop
func (s *Subscriber) startConsuming() error {
	messages, err := s.conn.ConsumeMessages(s.queue, s.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", s.queue, err)
	}

	go s.processMessages(messages)

	return nil
}

// Stop gracefully stops the subscriber
func (s *Subscriber) Stop() error {
	s.logger.Info("Stopping subscriber",
		zap.String("queue", s.queue),
		zap.String("consumer_tag", s.consumerTag),
	)
	s.started = false
	s.cancel()

	ch := s.conn.GetChannel()
	if ch != nil {
		if err := ch.Cancel(s.consumerTag, false); err != nil {
			s.logger.Error("Failed to cancel consumer",
				zap.String("consumer_tag", s.consumerTag),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Subscriber stopped",
		zap.String("queue", s.queue),
	)
	return nil
}

// processMessages processes deliveries until shutdown; when the delivery
// channel closes (connection loss) it waits for the shared connection to
// recover, re-binds and resumes.
func (s *Subscriber) processMessages(messages <-chan amqp.Delivery) {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Subscriber context cancelled, stopping message processing",
				zap.String("queue", s.queue),
			)
			return
		case msg, ok := <-messages:
			if !ok {
				s.logger.Warn("Message channel closed, attempting to restart consumer...",
					zap.String("queue", s.queue),
				)
				s.resumeAfterChannelClose()
				return
			}
			// In-flight handling is never cancelled mid-write:
			// finish-or-fail, the delivery context is the subscriber's own
			consumer.ProcessDelivery(s.ctx, s.logger, s.queue, msg, s.handler)
		}
	}
}

// resumeAfterChannelClose keeps retrying the bind+consume sequence until it
// succeeds or the subscriber is stopped. The connection manager reconnects
// underneath; this loop just waits for it.
func (s *Subscriber) resumeAfterChannelClose() {
	for s.started {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		time.Sleep(2 * time.Second)

		if !s.conn.IsHealthy() {
			s.logger.Debug("Connection not healthy yet, waiting...",
				zap.String("queue", s.queue),
			)
			continue
		}

		if err := s.bind(); err != nil {
			s.logger.Error("Failed to re-bind after channel close, will retry",
				zap.String("queue", s.queue),
				zap.Error(err),
			)
			time.Sleep(3 * time.Second)
			continue
		}

		if err := s.startConsuming(); err != nil {
			s.logger.Error("Failed to restart consuming after channel close, will retry",
				zap.String("queue", s.queue),
				zap.Error(err),
			)
			time.Sleep(3 * time.Second)
			continue
		}

		s.logger.Info("Successfully restarted consumer after channel close",
			zap.String("queue", s.queue),
		)
		return
	}
}
