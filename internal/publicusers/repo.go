package publicusers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// Repository exposes public staff account persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a public users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.PublicUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByUsername loads an active user by login id.
func (r *Repository) FindActiveByUsername(ctx context.Context, username string) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindActiveByPhone(ctx context.Context, phone string) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := r.db.WithContext(ctx).
		Where("phone = ? AND is_active = ?", phone, true).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByUsernameAndPhone loads an active user matching both values.
func (r *Repository) FindActiveByUsernameAndPhone(ctx context.Context, username, phone string) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := r.db.WithContext(ctx).
		Where("username = ? AND phone = ? AND is_active = ?", username, phone, true).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameTaken reports whether any account holds username.
func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PublicUser{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PhoneTaken reports whether an account other than exclude holds phone.
func (r *Repository) PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.PublicUser{}).Where("phone = ?", phone)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateColumns applies a partial update.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.PublicUser{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePasswordHash stores a new password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.UpdateColumns(ctx, id, map[string]any{"password_hash": hash})
}

// UpdatePhone stores a verified phone number.
func (r *Repository) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	return r.UpdateColumns(ctx, id, map[string]any{"phone": phone})
}

// UpdatePushToken stores the device push token.
func (r *Repository) UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.UpdateColumns(ctx, id, map[string]any{"push_token": token})
}

// Anonymize scrubs a staff account on deactivation. Complaints and edits
// keep pointing at the row.
func (r *Repository) Anonymize(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.UpdateColumns(ctx, id, map[string]any{
		"username":       fmt.Sprintf("deleted_user_%s", id),
		"phone":          fmt.Sprintf("010-0000-0000_%s", id),
		"email":          fmt.Sprintf("deleted_%s@example.com", id),
		"name":           "탈퇴한 사용자",
		"profile_photo":  nil,
		"push_token":     nil,
		"is_active":      false,
		"deactivated_at": at,
	})
}
