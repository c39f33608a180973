package menus

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db/models"
)

// MenuDTO is the menu payload returned to clients.
type MenuDTO struct {
	MenuNumber   int64           `json:"menu_number"`
	StoreID      uuid.UUID       `json:"store_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Category     *string         `json:"category"`
	Image        *string         `json:"image"`
	Spicy        string          `json:"spicy"`
	Allergy      *string         `json:"allergy"`
	Origin       *string         `json:"origin"`
	Introduction *string         `json:"menu_introduction"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromModel maps a menu row.
func FromModel(m *models.Menu) *MenuDTO {
	return &MenuDTO{
		MenuNumber:   m.MenuNumber,
		StoreID:      m.StoreID,
		Name:         m.Name,
		Price:        m.Price,
		Category:     m.Category,
		Image:        m.Image,
		Spicy:        m.Spicy.String(),
		Allergy:      m.Allergy,
		Origin:       m.Origin,
		Introduction: m.Introduction,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// priceEntry is one element of the store's menu_price snapshot.
type priceEntry struct {
	MenuNumber int64           `json:"menu_number"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   *string         `json:"category"`
	Image      *string         `json:"image"`
	Spicy      string          `json:"spicy"`
	Allergy    *string         `json:"allergy"`
	Origin     *string         `json:"origin"`
}

// CategoryOption is a category rendered for a select box.
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CreateInput is one menu of a batch create. Price is the raw form value.
type CreateInput struct {
	Name         string
	Price        string
	Category     *string
	Spicy        *string
	Allergy      *string
	Origin       *string
	Introduction *string
	Image        *media.Upload
}

// UpdateInput carries a partial menu update; nil fields are left untouched.
type UpdateInput struct {
	Name         *string
	Price        *string
	Category     *string
	Spicy        *string
	Allergy      *string
	Origin       *string
	Introduction *string
	Image        *media.Upload
	ClearImage   bool
}

// ImportResult summarises a spreadsheet import.
type ImportResult struct {
	Created []MenuDTO `json:"created_menus"`
	Skipped int       `json:"skipped"`
	Errors  []string  `json:"errors,omitempty"`
}
