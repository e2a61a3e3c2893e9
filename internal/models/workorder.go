package models

import "time"

// WorkOrder is owned by the work-order service. It is a derived entity: the
// saga creates one per consumed APPOINTMENT_CREATED event. AppointmentID is
// the originating identifier and is unique so duplicate deliveries of the
// same event cannot create a second work order.
type WorkOrder struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AppointmentID   uint      `gorm:"not null;uniqueIndex" json:"appointment_id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	VehicleID       uint      `gorm:"not null" json:"vehicle_id"`
	ServiceCenterID uint      `gorm:"not null" json:"service_center_id"`
	Title           string    `json:"title"`
	Status          string    `gorm:"not null;default:'pending'" json:"status"`
	TotalPrice      float64   `gorm:"not null;default:0" json:"total_price"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// Work order statuses
const (
	WorkOrderStatusPending    = "pending"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusCompleted  = "completed"
	WorkOrderStatusCancelled  = "cancelled"
)
