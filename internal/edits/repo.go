package edits

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// Repository persists request-service submissions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, edit *models.Edit) error {
	return r.db.WithContext(ctx).Create(edit).Error
}

// ListByUser returns a store owner's submissions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Edit, error) {
	return r.list(ctx, "user_id = ?", userID)
}

// ListByPublicUser returns a public staff member's submissions, newest first.
func (r *Repository) ListByPublicUser(ctx context.Context, publicUserID uuid.UUID) ([]models.Edit, error) {
	return r.list(ctx, "public_user_id = ?", publicUserID)
}

func (r *Repository) list(ctx context.Context, where string, id uuid.UUID) ([]models.Edit, error) {
	var rows []models.Edit
	if err := r.db.WithContext(ctx).Where(where, id).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) AnonymizeByUser(ctx context.Context, userID uuid.UUID) error {
	rows, err := r.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	return r.anonymize(ctx, rows)
}

func (r *Repository) AnonymizeByPublicUser(ctx context.Context, publicUserID uuid.UUID) error {
	rows, err := r.ListByPublicUser(ctx, publicUserID)
	if err != nil {
		return err
	}
	return r.anonymize(ctx, rows)
}

func (r *Repository) anonymize(ctx context.Context, rows []models.Edit) error {
	for _, edit := range rows {
		err := r.db.WithContext(ctx).
			Model(&models.Edit{}).
			Where("id = ?", edit.ID).
			Updates(map[string]any{
				"title":   fmt.Sprintf("익명화된 제목_%s", edit.ID),
				"content": "익명화된 내용",
				"file":    nil,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
