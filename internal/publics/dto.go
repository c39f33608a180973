package publics

import (
	"time"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db/models"
)

// PublicDTO is the API shape of a public institution.
type PublicDTO struct {
	ID           uuid.UUID `json:"public_id"`
	Name         string    `json:"public_name"`
	Address      *string   `json:"public_address"`
	Tel          *string   `json:"public_tel"`
	Logo         *string   `json:"logo"`
	OpeningHours *string   `json:"opening_hours"`
	Slug         string    `json:"slug"`
	QRCode       *string   `json:"qr_code"`
	AgentID      *string   `json:"agent_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromModel(p *models.Public) *PublicDTO {
	if p == nil {
		return nil
	}
	return &PublicDTO{
		ID:           p.ID,
		Name:         p.Name,
		Address:      p.Address,
		Tel:          p.Tel,
		Logo:         p.Logo,
		OpeningHours: p.OpeningHours,
		Slug:         p.Slug,
		QRCode:       p.QRCode,
		AgentID:      p.AgentID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// CreateInput registers a public institution.
type CreateInput struct {
	Name         string
	Address      *string
	Tel          *string
	OpeningHours *string
	AgentID      *string
	Logo         *media.Upload
}

// UserInfoDTO is the signed-in staff member with their public and department.
type UserInfoDTO struct {
	User       StaffDTO                   `json:"user"`
	Public     *PublicDTO                 `json:"public"`
	Department *departments.DepartmentDTO `json:"department"`
}

type StaffDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"user_id"`
	Name     *string   `json:"name"`
	Phone    string    `json:"phone"`
	Email    *string   `json:"email"`
}
