package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Edit is a support request ("request-service"). Exactly one of UserID or
// PublicUserID is set.
type Edit struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	PublicUserID *uuid.UUID `gorm:"column:public_user_id;type:uuid;index"`
	Title        *string    `gorm:"column:title"`
	Content      *string    `gorm:"column:content"`
	File         *string    `gorm:"column:file"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (e *Edit) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
