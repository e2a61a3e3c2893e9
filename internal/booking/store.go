package booking

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
	"github.com/autocare/servicehub/internal/outbox"
)

// Store owns the booking service's appointments table.
type Store struct {
	db     *gorm.DB
	outbox outbox.Store
}

func NewStore(db *gorm.DB, outboxStore outbox.Store) *Store {
	return &Store{db: db, outbox: outboxStore}
}

// CreateAppointment persists the appointment and the APPOINTMENT_CREATED
// outbox row in one transaction. Only a committed local write claims an
// event; the relay takes it from there.
func (s *Store) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(appointment).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		env, err := events.NewEnvelope(events.TypeAppointmentCreated, events.AppointmentCreated{
			ID:              appointment.ID,
			UserID:          appointment.UserID,
			VehicleID:       appointment.VehicleID,
			ServiceCenterID: appointment.ServiceCenterID,
			Notes:           appointment.Notes,
		})
		if err != nil {
			return err
		}

		return s.outbox.Append(tx, events.ExchangeBooking, env)
	})
	if err != nil {
		return err
	}
	return nil
}

// GetAppointment fetches one appointment by id.
func (s *Store) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.db.WithContext(ctx).First(&appointment, id).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}
