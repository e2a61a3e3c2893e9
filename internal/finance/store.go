package finance

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

// Payment terms applied to invoices derived from completed work orders.
const invoiceDueInDays = 14

// Store owns the finance service's invoices table.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateFromWorkOrder creates the invoice derived from a completed
// WORKORDER_UPDATED event. Dedup happens on the unique work_order_id:
// a duplicate delivery returns the existing row with created=false.
func (s *Store) CreateFromWorkOrder(ctx context.Context, payload events.WorkOrderUpdated) (*models.Invoice, bool, error) {
	invoice := models.Invoice{
		WorkOrderID: payload.ID,
	}

	result := s.db.WithContext(ctx).
		Where(models.Invoice{WorkOrderID: payload.ID}).
		Attrs(models.Invoice{
			CustomerID: payload.UserID,
			Amount:     payload.TotalPrice,
			Status:     models.InvoiceStatusPending,
			DueDate:    time.Now().UTC().AddDate(0, 0, invoiceDueInDays),
		}).
		FirstOrCreate(&invoice)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create invoice for work order %d: %w", payload.ID, result.Error)
	}

	return &invoice, result.RowsAffected > 0, nil
}

// GetInvoice fetches one invoice by id.
func (s *Store) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoiceByWorkOrder fetches the invoice derived from a work order.
func (s *Store) GetInvoiceByWorkOrder(ctx context.Context, workOrderID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
