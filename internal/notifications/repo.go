package notifications

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
)

// Repository reads and writes device tokens for both account kinds.
type Repository interface {
	PushToken(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID) (*string, error)
	SavePushToken(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID, token *string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func modelFor(kind enums.AccountKind) any {
	if kind == enums.AccountKindPublicStaff {
		return &models.PublicUser{}
	}
	return &models.User{}
}

func (r *repository) PushToken(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID) (*string, error) {
	var row struct {
		PushToken sql.NullString
	}
	err := r.db.WithContext(ctx).
		Model(modelFor(kind)).
		Select("push_token").
		Where("id = ? AND is_active = ?", accountID, true).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	if !row.PushToken.Valid {
		return nil, nil
	}
	return &row.PushToken.String, nil
}

func (r *repository) SavePushToken(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID, token *string) error {
	res := r.db.WithContext(ctx).
		Model(modelFor(kind)).
		Where("id = ? AND is_active = ?", accountID, true).
		Update("push_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
