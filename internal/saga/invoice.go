package saga

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

// InvoiceCreator is the finance service's local write the saga needs.
// Creation is idempotent on the work-order id.
type InvoiceCreator interface {
	CreateFromWorkOrder(ctx context.Context, payload events.WorkOrderUpdated) (*models.Invoice, bool, error)
}

// InvoiceSaga reacts to work-order events: a WORKORDER_UPDATED carrying a
// completed status becomes an invoice. Every other status transition on the
// same event type is a no-op.
type InvoiceSaga struct {
	store  InvoiceCreator
	logger *zap.Logger
}

func NewInvoiceSaga(store InvoiceCreator, logger *zap.Logger) *InvoiceSaga {
	return &InvoiceSaga{store: store, logger: logger}
}

// HandleEvent implements consumer.EventHandler.
func (s *InvoiceSaga) HandleEvent(ctx context.Context, env events.Envelope) error {
	switch env.Type {
	case events.TypeWorkOrderUpdated:
		return s.createInvoice(ctx, env)
	default:
		s.logger.Warn("Ignoring event with unknown type",
			zap.String("event_type", env.Type),
		)
		return nil
	}
}

func (s *InvoiceSaga) createInvoice(ctx context.Context, env events.Envelope) error {
	var payload events.WorkOrderUpdated
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.logger.Error("Discarding event with malformed payload",
			zap.String("event_type", env.Type),
			zap.ByteString("payload", env.Payload),
			zap.Error(err),
		)
		return nil
	}

	if payload.Status != models.WorkOrderStatusCompleted {
		s.logger.Debug("Work order update is not a completion, no invoice to create",
			zap.Uint("work_order_id", payload.ID),
			zap.String("status", payload.Status),
		)
		return nil
	}

	invoice, created, err := s.store.CreateFromWorkOrder(ctx, payload)
	if err != nil {
		return err
	}

	if !created {
		s.logger.Info("Invoice already exists for work order, skipping duplicate delivery",
			zap.Uint("work_order_id", payload.ID),
			zap.Uint("invoice_id", invoice.ID),
		)
		return nil
	}

	s.logger.Info("Created invoice from work order completion",
		zap.Uint("work_order_id", payload.ID),
		zap.Uint("invoice_id", invoice.ID),
		zap.Float64("amount", payload.TotalPrice),
	)
	return nil
}
