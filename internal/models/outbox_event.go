package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a pending event emission, written in the same transaction
// as the business write it announces. The relay publishes pending rows and
// marks them published only after the broker accepts, turning an
// at-most-once publish into an at-least-once one.
type OutboxEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Exchange    string     `gorm:"not null" json:"exchange"`
	EventType   string     `gorm:"not null" json:"event_type"`
	Payload     []byte     `gorm:"type:jsonb;not null" json:"payload"`
	Status      string     `gorm:"not null;default:'pending';index" json:"status"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	PublishedAt *time.Time `json:"published_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// Outbox statuses
const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
)
