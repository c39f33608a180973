package menus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// Repository exposes menu persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a menus repository tied to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, menu *models.Menu) error {
	return r.db.WithContext(ctx).Create(menu).Error
}

// ListByStore returns the menus of a store ordered by menu number.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Menu, error) {
	var rows []models.Menu
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("menu_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByNumber(ctx context.Context, storeID uuid.UUID, number int64) (*models.Menu, error) {
	var menu models.Menu
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND menu_number = ?", storeID, number).
		First(&menu).Error; err != nil {
		return nil, err
	}
	return &menu, nil
}

// MaxNumber returns the highest menu number used by a store, 0 when empty.
func (r *Repository) MaxNumber(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var max int64
	if err := r.db.WithContext(ctx).
		Model(&models.Menu{}).
		Where("store_id = ?", storeID).
		Select("COALESCE(MAX(menu_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (r *Repository) Save(ctx context.Context, menu *models.Menu) error {
	return r.db.WithContext(ctx).Save(menu).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Menu{}, "id = ?", id).Error
}

// ListByCategory returns the menus of one category.
func (r *Repository) ListByCategory(ctx context.Context, storeID uuid.UUID, category string) ([]models.Menu, error) {
	var rows []models.Menu
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND category = ?", storeID, category).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteByCategory(ctx context.Context, storeID uuid.UUID, category string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("store_id = ? AND category = ?", storeID, category).
		Delete(&models.Menu{})
	return res.RowsAffected, res.Error
}

// Categories lists the distinct non-empty categories of a store, sorted.
func (r *Repository) Categories(ctx context.Context, storeID uuid.UUID) ([]string, error) {
	var out []string
	if err := r.db.WithContext(ctx).
		Model(&models.Menu{}).
		Where("store_id = ? AND category IS NOT NULL AND category <> ''", storeID).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AnonymizeByStore strips names, prices and images from every menu of a store.
func (r *Repository) AnonymizeByStore(ctx context.Context, storeID uuid.UUID) error {
	rows, err := r.ListByStore(ctx, storeID)
	if err != nil {
		return err
	}
	for _, menu := range rows {
		err := r.db.WithContext(ctx).
			Model(&models.Menu{}).
			Where("id = ?", menu.ID).
			Updates(map[string]any{
				"name":  fmt.Sprintf("익명화된 메뉴_%d", menu.MenuNumber),
				"price": decimal.Zero,
				"image": nil,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
