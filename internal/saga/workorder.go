package saga

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

// WorkOrderCreator is the work-order service's local write the saga needs.
// Creation is idempotent on the appointment id: a duplicate delivery finds
// the existing work order instead of creating a second one.
type WorkOrderCreator interface {
	CreateFromAppointment(ctx context.Context, payload events.AppointmentCreated) (*models.WorkOrder, bool, error)
}

// WorkOrderSaga reacts to booking events: APPOINTMENT_CREATED becomes a
// pending work order keyed by the appointment id.
type WorkOrderSaga struct {
	store  WorkOrderCreator
	logger *zap.Logger
}

func NewWorkOrderSaga(store WorkOrderCreator, logger *zap.Logger) *WorkOrderSaga {
	return &WorkOrderSaga{store: store, logger: logger}
}

// HandleEvent implements consumer.EventHandler.
func (s *WorkOrderSaga) HandleEvent(ctx context.Context, env events.Envelope) error {
	switch env.Type {
	case events.TypeAppointmentCreated:
		return s.createWorkOrder(ctx, env)
	default:
		// Forward compatibility: new event types must not break old
		// consumers. Acknowledge without action.
		s.logger.Warn("Ignoring event with unknown type",
			zap.String("event_type", env.Type),
		)
		return nil
	}
}

func (s *WorkOrderSaga) createWorkOrder(ctx context.Context, env events.Envelope) error {
	var payload events.AppointmentCreated
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		// Permanent fault: redelivery cannot fix a malformed payload.
		// Log for manual inspection and acknowledge.
		s.logger.Error("Discarding event with malformed payload",
			zap.String("event_type", env.Type),
			zap.ByteString("payload", env.Payload),
			zap.Error(err),
		)
		return nil
	}

	workOrder, created, err := s.store.CreateFromAppointment(ctx, payload)
	if err != nil {
		// Transient fault (local store unavailable): do not acknowledge,
		// the redelivery retries.
		return err
	}

	if !created {
		s.logger.Info("Work order already exists for appointment, skipping duplicate delivery",
			zap.Uint("appointment_id", payload.ID),
			zap.Uint("work_order_id", workOrder.ID),
		)
		return nil
	}

	s.logger.Info("Created work order from appointment event",
		zap.Uint("appointment_id", payload.ID),
		zap.Uint("work_order_id", workOrder.ID),
	)
	return nil
}
