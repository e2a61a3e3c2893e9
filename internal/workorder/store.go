package workorder

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
	"github.com/autocare/servicehub/internal/outbox"
)

// Store owns the work-order service's work_orders table.
type Store struct {
	db     *gorm.DB
	outbox outbox.Store
}

func NewStore(db *gorm.DB, outboxStore outbox.Store) *Store {
	return &Store{db: db, outbox: outboxStore}
}

// CreateFromAppointment creates the work order derived from an
// APPOINTMENT_CREATED event. Dedup happens on the unique appointment_id:
// a duplicate delivery returns the existing row with created=false.
func (s *Store) CreateFromAppointment(ctx context.Context, payload events.AppointmentCreated) (*models.WorkOrder, bool, error) {
	workOrder := models.WorkOrder{
		AppointmentID: payload.ID,
	}

	result := s.db.WithContext(ctx).
		Where(models.WorkOrder{AppointmentID: payload.ID}).
		Attrs(models.WorkOrder{
			UserID:          payload.UserID,
			VehicleID:       payload.VehicleID,
			ServiceCenterID: payload.ServiceCenterID,
			Title:           payload.Notes,
			Status:          models.WorkOrderStatusPending,
		}).
		FirstOrCreate(&workOrder)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create work order for appointment %d: %w", payload.ID, result.Error)
	}

	return &workOrder, result.RowsAffected > 0, nil
}

// UpdateStatus updates a work order and writes the WORKORDER_UPDATED outbox
// row in the same transaction.
func (s *Store) UpdateStatus(ctx context.Context, id uint, status string, totalPrice *float64) (*models.WorkOrder, error) {
	var workOrder models.WorkOrder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&workOrder, id).Error; err != nil {
			return err
		}

		workOrder.Status = status
		if totalPrice != nil {
			workOrder.TotalPrice = *totalPrice
		}

		if err := tx.Save(&workOrder).Error; err != nil {
			return fmt.Errorf("failed to update work order %d: %w", id, err)
		}

		env, err := events.NewEnvelope(events.TypeWorkOrderUpdated, events.WorkOrderUpdated{
			ID:         workOrder.ID,
			Status:     workOrder.Status,
			UserID:     workOrder.UserID,
			TotalPrice: workOrder.TotalPrice,
		})
		if err != nil {
			return err
		}

		return s.outbox.Append(tx, events.ExchangeWorkOrder, env)
	})
	if err != nil {
		return nil, err
	}

	return &workOrder, nil
}

// GetWorkOrder fetches one work order by id.
func (s *Store) GetWorkOrder(ctx context.Context, id uint) (*models.WorkOrder, error) {
	var workOrder models.WorkOrder
	if err := s.db.WithContext(ctx).First(&workOrder, id).Error; err != nil {
		return nil, err
	}
	return &workOrder, nil
}
