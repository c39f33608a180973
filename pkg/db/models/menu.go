package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/enums"
)

// Menu is a line item of a Store. MenuNumber is unique per store.
type Menu struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	StoreID      uuid.UUID        `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_menus_store_number"`
	MenuNumber   int64            `gorm:"column:menu_number;not null;uniqueIndex:idx_menus_store_number"`
	Name         string           `gorm:"column:name;not null"`
	Price        decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Category     *string          `gorm:"column:category"`
	Image        *string          `gorm:"column:image"`
	Spicy        enums.SpicyLevel `gorm:"column:spicy;not null;default:'none'"`
	Allergy      *string          `gorm:"column:allergy"`
	Origin       *string          `gorm:"column:origin"`
	Introduction *string          `gorm:"column:introduction"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Menu) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
