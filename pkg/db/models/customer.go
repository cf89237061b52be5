package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a directory entry orders may reference. The directory itself is
// managed elsewhere; the engine only relies on referential integrity.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Email      *string   `gorm:"column:email"`
	Phone      *string   `gorm:"column:phone"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
