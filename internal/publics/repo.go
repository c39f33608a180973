package publics

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// Repository persists public institutions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, public *models.Public) error {
	return r.db.WithContext(ctx).Create(public).Error
}

func (r *Repository) List(ctx context.Context) ([]models.Public, error) {
	var rows []models.Public
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Public, error) {
	var public models.Public
	if err := r.db.WithContext(ctx).First(&public, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &public, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Public, error) {
	var public models.Public
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&public).Error; err != nil {
		return nil, err
	}
	return &public, nil
}

func (r *Repository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Public{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Public{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateColumns applies a partial update.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Public{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
