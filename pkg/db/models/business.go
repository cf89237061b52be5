package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Business represents the tenant every order and inventory record belongs to.
type Business struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     *string   `gorm:"column:email"`
	Phone     *string   `gorm:"column:phone"`
	Currency  string    `gorm:"column:currency;type:text;not null;default:'USD'"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
