package departments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// Repository persists public departments and staff placement.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Names lists the distinct department names of a public, sorted.
func (r *Repository) Names(ctx context.Context, publicID uuid.UUID) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&models.PublicDepartment{}).
		Where("public_id = ?", publicID).
		Distinct("name").
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PublicDepartment, error) {
	var dept models.PublicDepartment
	if err := r.db.WithContext(ctx).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *Repository) FindByName(ctx context.Context, publicID uuid.UUID, name string) (*models.PublicDepartment, error) {
	var dept models.PublicDepartment
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND name = ?", publicID, name).
		First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *Repository) Create(ctx context.Context, dept *models.PublicDepartment) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

// GetOrCreate returns the named department, inserting it when absent. The
// insert ignores a concurrent duplicate and re-reads the winner.
func (r *Repository) GetOrCreate(ctx context.Context, publicID uuid.UUID, name string) (*models.PublicDepartment, error) {
	if dept, err := r.FindByName(ctx, publicID, name); err == nil {
		return dept, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	dept := &models.PublicDepartment{PublicID: publicID, Name: name}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "public_id"}, {Name: "name"}}, DoNothing: true}).
		Create(dept)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return r.FindByName(ctx, publicID, name)
	}
	return dept, nil
}

// PublicBySlug loads a public by its storefront slug.
func (r *Repository) PublicBySlug(ctx context.Context, slug string) (*models.Public, error) {
	var public models.Public
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&public).Error; err != nil {
		return nil, err
	}
	return &public, nil
}

func (r *Repository) PublicByID(ctx context.Context, id uuid.UUID) (*models.Public, error) {
	var public models.Public
	if err := r.db.WithContext(ctx).First(&public, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &public, nil
}

// Staff loads an active public user.
func (r *Repository) Staff(ctx context.Context, publicUserID uuid.UUID) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", publicUserID, true).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AssignStaff moves a public user into a department.
func (r *Repository) AssignStaff(ctx context.Context, publicUserID, departmentID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.PublicUser{}).
		Where("id = ?", publicUserID).
		Update("department_id", departmentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
