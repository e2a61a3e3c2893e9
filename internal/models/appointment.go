package models

import "time"

// Appointment is owned by the booking service.
type Appointment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	VehicleID       uint      `gorm:"not null" json:"vehicle_id"`
	ServiceCenterID uint      `gorm:"not null" json:"service_center_id"`
	Notes           string    `json:"notes"`
	Status          string    `gorm:"not null;default:'scheduled'" json:"status"`
	ScheduledAt     time.Time `gorm:"not null" json:"scheduled_at"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}
