package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a store owner account.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username      string     `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	Name          *string    `gorm:"column:name"`
	DOB           *time.Time `gorm:"column:dob;type:date"`
	Phone         string     `gorm:"column:phone;not null;uniqueIndex"`
	Email         *string    `gorm:"column:email"`
	ProfilePhoto  *string    `gorm:"column:profile_photo"`
	Marketing     bool       `gorm:"column:marketing;not null;default:false"`
	PushToken     *string    `gorm:"column:push_token"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
