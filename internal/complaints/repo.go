package complaints

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, complaint *models.PublicComplaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

// FindForPublic loads a complaint only when it belongs to publicID.
func (r *Repository) FindForPublic(ctx context.Context, id, publicID uuid.UUID) (*models.PublicComplaint, error) {
	var complaint models.PublicComplaint
	if err := r.db.WithContext(ctx).
		Where("id = ? AND public_id = ?", id, publicID).
		First(&complaint).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *Repository) FindByNumberAndPhone(ctx context.Context, number, phone string) (*models.PublicComplaint, error) {
	var complaint models.PublicComplaint
	if err := r.db.WithContext(ctx).
		Where("complaint_number = ? AND phone = ?", number, phone).
		First(&complaint).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

// ExistsByNumberAndPhone backs the citizen lookup verification.
func (r *Repository) ExistsByNumberAndPhone(ctx context.Context, number, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PublicComplaint{}).
		Where("complaint_number = ? AND phone = ?", number, phone).
		Count(&count).Error
	return count > 0, err
}

// ListByDepartment returns the complaints of a department, newest first.
func (r *Repository) ListByDepartment(ctx context.Context, publicID, departmentID uuid.UUID) ([]models.PublicComplaint, error) {
	var rows []models.PublicComplaint
	err := r.db.WithContext(ctx).
		Where("public_id = ? AND department_id = ?", publicID, departmentID).
		Order("created_at DESC").
		Order("complaint_number DESC").
		Find(&rows).Error
	return rows, err
}

// LastDailyNumber returns the highest NNN already issued for day (YYYYMMDD).
func (r *Repository) LastDailyNumber(ctx context.Context, day string) (int64, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.PublicComplaint{}).
		Where("complaint_number LIKE ?", day+"-%").
		Order("complaint_number DESC").
		Limit(1).
		Pluck("complaint_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(numbers[0], day+"-"), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.PublicComplaint{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
