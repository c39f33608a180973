package stores

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db/models"
)

// StoreDTO is the API shape of a store.
type StoreDTO struct {
	ID           uuid.UUID       `json:"store_id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Category     *string         `json:"store_category"`
	Name         string          `json:"store_name"`
	Address      *string         `json:"store_address"`
	Introduction *string         `json:"store_introduction"`
	Slug         string          `json:"slug"`
	Banner       *string         `json:"banner"`
	OpeningHours *string         `json:"opening_hours"`
	MenuPrice    json.RawMessage `json:"menu_price"`
	QRCode       *string         `json:"qr_code"`
	AgentID      *string         `json:"agent_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromModel maps a store row to its DTO. A menu_price that is not valid JSON
// is reported as an empty list.
func FromModel(s *models.Store) *StoreDTO {
	if s == nil {
		return nil
	}
	menuPrice := json.RawMessage("[]")
	if s.MenuPrice != nil && json.Valid([]byte(*s.MenuPrice)) {
		menuPrice = json.RawMessage(*s.MenuPrice)
	}
	return &StoreDTO{
		ID:           s.ID,
		OwnerID:      s.OwnerID,
		Category:     s.Category,
		Name:         s.Name,
		Address:      s.Address,
		Introduction: s.Introduction,
		Slug:         s.Slug,
		Banner:       s.Banner,
		OpeningHours: s.OpeningHours,
		MenuPrice:    menuPrice,
		QRCode:       s.QRCode,
		AgentID:      s.AgentID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// UpdateInput carries a partial store update. Nil fields are left alone.
type UpdateInput struct {
	Name         *string
	Address      *string
	Category     *string
	Introduction *string
	OpeningHours *string
	AgentID      *string
	// ClearBanner removes the current banner; Banner replaces it.
	ClearBanner bool
	Banner      *media.Upload
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Address == nil && in.Category == nil &&
		in.Introduction == nil && in.OpeningHours == nil && in.AgentID == nil &&
		!in.ClearBanner && in.Banner == nil
}

// CreateInput carries the store part of a signup.
type CreateInput struct {
	OwnerID  uuid.UUID
	Name     string
	Category *string
	Address  *string
}
