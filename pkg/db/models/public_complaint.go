package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/enums"
)

// PublicComplaint is a citizen complaint routed to one department.
type PublicComplaint struct {
	ID              uuid.UUID             `gorm:"type:uuid;primaryKey"`
	ComplaintNumber string                `gorm:"column:complaint_number;not null;uniqueIndex"`
	PublicID        uuid.UUID             `gorm:"column:public_id;type:uuid;not null;index"`
	DepartmentID    *uuid.UUID            `gorm:"column:department_id;type:uuid;index"`
	Name            string                `gorm:"column:name;not null"`
	BirthDate       string                `gorm:"column:birth_date;not null"`
	Phone           string                `gorm:"column:phone;not null"`
	Email           *string               `gorm:"column:email"`
	Title           string                `gorm:"column:title;not null"`
	Content         string                `gorm:"column:content;not null"`
	Status          enums.ComplaintStatus `gorm:"column:status;not null;default:'접수'"`
	Answer          *string               `gorm:"column:answer"`
	TransferReason  *string               `gorm:"column:transfer_reason"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *PublicComplaint) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = enums.ComplaintStatusReceived
	}
	return nil
}
