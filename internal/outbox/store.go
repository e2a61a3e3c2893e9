package outbox

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autocare/servicehub/internal/events"
	"github.com/autocare/servicehub/internal/models"
)

// Store persists pending event emissions. Append is called inside the same
// transaction as the business write; the relay drains rows afterwards.
type Store interface {
	Append(tx *gorm.DB, exchange string, env events.Envelope) error
	FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id string, cause error) error
}

// GormStore is the Postgres-backed outbox store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append inserts an outbox row using the caller's transaction handle, so the
// business write and the pending emission commit or roll back together.
func (s *GormStore) Append(tx *gorm.DB, exchange string, env events.Envelope) error {
	record := models.OutboxEvent{
		Exchange:  exchange,
		EventType: env.Type,
		Payload:   []byte(env.Payload),
		Status:    models.OutboxStatusPending,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

// FetchPending returns the oldest pending rows, locked against concurrent
// relay instances.
func (s *GormStore) FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var pending []models.OutboxEvent
	err := s.db.WithContext(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}
	return pending, nil
}

// MarkPublished flips a row to published after the broker accepted it.
func (s *GormStore) MarkPublished(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.OutboxStatusPublished,
			"published_at": &now,
			"last_error":   nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	return nil
}

// RecordFailure keeps the row pending and remembers the latest publish error.
func (s *GormStore) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := cause.Error()
	err := s.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("last_error", &msg).Error
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", err)
	}
	return nil
}
