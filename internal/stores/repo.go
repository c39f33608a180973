package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// Repository exposes store persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a stores repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new store.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindOwned loads a store only when ownerID owns it.
func (r *Repository) FindOwned(ctx context.Context, ownerID, storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", storeID, ownerID).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindBySlug loads the storefront for a slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ListByOwner returns the owner's stores, oldest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// PrimaryForOwner returns the owner's first store.
func (r *Repository) PrimaryForOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// NameTaken reports whether another store already uses name.
func (r *Repository) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	return r.taken(ctx, "name", name, exclude)
}

// SlugTaken reports whether another store already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	return r.taken(ctx, "slug", slug, exclude)
}

func (r *Repository) taken(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Store{}).Where(column+" = ?", value)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists every column of store.
func (r *Repository) Save(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// UpdateColumns applies a partial update.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Store{}).Where("id = ?", id).Updates(values).Error
}

// AnonymizeByOwner renames every store of ownerID and returns them as they
// were before the rename.
func (r *Repository) AnonymizeByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	stores, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, store := range stores {
		values := map[string]any{
			"name":    fmt.Sprintf("익명화된 가게_%s", store.ID),
			"slug":    fmt.Sprintf("deleted-store_%s", store.ID),
			"banner":  nil,
			"qr_code": nil,
		}
		if err := r.UpdateColumns(ctx, store.ID, values); err != nil {
			return nil, err
		}
	}
	return stores, nil
}
