package publicusers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/types"
)

const defaultPhotoValue = "default"

type departmentMover interface {
	Move(ctx context.Context, publicUserID uuid.UUID, name string) (*departments.MoveResult, error)
}

// Service exposes the public staff profile.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
}

type ServiceParams struct {
	DB          *db.Client
	Departments departmentMover
	Uploader    *media.Uploader
	Logger      *logger.Logger
}

type service struct {
	db          *db.Client
	departments departmentMover
	uploader    *media.Uploader
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Departments == nil {
		return nil, fmt.Errorf("department service required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{db: params.DB, departments: params.Departments, uploader: params.Uploader, logg: logg}, nil
}

// PhotoPrefix is the storage folder holding a staff member's profile photos.
func PhotoPrefix(userID uuid.UUID) string {
	return media.ProfilePhotoPrefix("public_user", userID)
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	deptRepo := departments.NewRepository(s.db.DB())
	public, err := deptRepo.PublicByID(ctx, user.PublicID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load public")
	}
	var dept *models.PublicDepartment
	if user.DepartmentID != nil {
		dept, err = deptRepo.FindByID(ctx, *user.DepartmentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department")
		}
	}
	return newProfile(user, public, dept), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	repo := NewRepository(s.db.DB())

	values := map[string]any{}
	if input.Name != nil {
		values["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		values["email"] = strings.TrimSpace(*input.Email)
	}
	if input.Marketing != nil {
		values["marketing"] = *input.Marketing
	}
	if input.PhoneNumber != nil {
		phone := types.NormalizePhone(*input.PhoneNumber)
		if phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "전화번호를 입력해주세요.")
		}
		taken, err := repo.PhoneTaken(ctx, phone, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "이미 사용 중인 전화번호입니다.")
		}
		values["phone"] = phone
	}

	var uploaded string
	switch {
	case input.PhotoUpload != nil:
		if err := media.Validate(media.KindImage, input.PhotoUpload.Filename); err != nil {
			return nil, err
		}
		if _, uploaded, err = s.uploader.SaveUnique(ctx, PhotoPrefix(userID), *input.PhotoUpload); err != nil {
			return nil, err
		}
		values["profile_photo"] = uploaded
	case input.ProfilePhoto != nil:
		switch strings.TrimSpace(*input.ProfilePhoto) {
		case "":
			values["profile_photo"] = nil
		case defaultPhotoValue:
			values["profile_photo"] = s.uploader.URL(media.DefaultProfilePhotoKey)
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "유효한 프로필 사진 또는 type이 제공되지 않았습니다.")
		}
	}

	if input.DepartmentName != nil {
		if _, err := s.departments.Move(ctx, userID, *input.DepartmentName); err != nil {
			s.discard(ctx, uploaded)
			return nil, err
		}
	}

	if len(values) > 0 {
		if err := repo.UpdateColumns(ctx, userID, values); err != nil {
			s.discard(ctx, uploaded)
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
	}
	if _, changed := values["profile_photo"]; changed && user.ProfilePhoto != nil &&
		strings.HasPrefix(s.uploader.KeyOf(*user.ProfilePhoto), PhotoPrefix(userID)+"/") {
		s.discard(ctx, *user.ProfilePhoto)
	}
	return s.Profile(ctx, userID)
}

func (s *service) discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.uploader.RemoveURL(ctx, url); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "public_profile.photo.remove_failed")
	}
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error) {
	user, err := NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
	}
	return user, nil
}
