package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a merchant storefront owned by a User.
type Store struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID      uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Category     *string   `gorm:"column:category"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Address      *string   `gorm:"column:address"`
	Introduction *string   `gorm:"column:introduction"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex"`
	Banner       *string   `gorm:"column:banner"`
	OpeningHours *string   `gorm:"column:opening_hours"`
	// MenuPrice holds the JSON snapshot of every menu in the store.
	MenuPrice *string   `gorm:"column:menu_price"`
	QRCode    *string   `gorm:"column:qr_code"`
	AgentID   *string   `gorm:"column:agent_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
