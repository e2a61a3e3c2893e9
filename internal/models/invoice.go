package models

import "time"

// Invoice is owned by the finance service, derived from WORKORDER_UPDATED
// events with a completed status. WorkOrderID is the originating identifier
// and is unique for duplicate-delivery detection.
type Invoice struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkOrderID uint      `gorm:"not null;uniqueIndex" json:"work_order_id"`
	CustomerID  uint      `gorm:"not null;index" json:"customer_id"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Status      string    `gorm:"not null;default:'pending'" json:"status"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Invoice statuses
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusVoid    = "void"
)
