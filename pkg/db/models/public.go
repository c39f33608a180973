package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Public is a public institution using the complaint desk.
type Public struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Address      *string   `gorm:"column:address"`
	Tel          *string   `gorm:"column:tel"`
	Logo         *string   `gorm:"column:logo"`
	OpeningHours *string   `gorm:"column:opening_hours"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex"`
	QRCode       *string   `gorm:"column:qr_code"`
	AgentID      *string   `gorm:"column:agent_id"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Public) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PublicDepartment is a sub-unit of a Public. Names are unique per public.
type PublicDepartment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PublicID  uuid.UUID `gorm:"column:public_id;type:uuid;not null;uniqueIndex:idx_public_departments_public_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_public_departments_public_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (d *PublicDepartment) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
