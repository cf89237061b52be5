package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

// OutboxEvent stages a domain event inside the same transaction as the write
// that produced it. The publisher drains unpublished rows in the background.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	Attempts      int                       `gorm:"column:attempts;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	PublishedAt   *time.Time                `gorm:"column:published_at;index"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
