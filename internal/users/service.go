package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/types"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error
}

type storeService interface {
	Primary(ctx context.Context, ownerID uuid.UUID) (*stores.StoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input stores.UpdateInput) (*stores.StoreDTO, error)
}

// Service exposes the store owner profile.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	UpdatePhoto(ctx context.Context, userID uuid.UUID, input PhotoInput) (*PhotoDTO, error)
}

// ServiceParams groups the profile service dependencies.
type ServiceParams struct {
	Users    userRepository
	Stores   storeService
	Uploader *media.Uploader
	Logger   *logger.Logger
}

type service struct {
	users    userRepository
	stores   storeService
	uploader *media.Uploader
	logg     *logger.Logger
}

// NewService builds the profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store service required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	return &service{
		users:    params.Users,
		stores:   params.Stores,
		uploader: params.Uploader,
		logg:     params.Logger,
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	store, err := s.primaryStore(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newProfile(user, store), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

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
		taken, err := s.users.PhoneTaken(ctx, phone, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "이미 사용 중인 전화번호입니다.")
		}
		values["phone"] = phone
	}
	if err := s.users.UpdateColumns(ctx, userID, values); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}

	if input.BusinessName != nil || input.BusinessAddress != nil {
		store, err := s.primaryStore(ctx, userID)
		if err != nil {
			return nil, err
		}
		if store != nil {
			if _, err := s.stores.Update(ctx, userID, store.ID, stores.UpdateInput{
				Name:    input.BusinessName,
				Address: input.BusinessAddress,
			}); err != nil {
				return nil, err
			}
		}
	}
	return s.Profile(ctx, userID)
}

func (s *service) UpdatePhoto(ctx context.Context, userID uuid.UUID, input PhotoInput) (*PhotoDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var url string
	switch {
	case input.UseDefault:
		url = s.uploader.URL(media.DefaultProfilePhotoKey)
	case input.Upload != nil:
		if err := media.Validate(media.KindImage, input.Upload.Filename); err != nil {
			return nil, err
		}
		if _, url, err = s.uploader.SaveUnique(ctx, PhotoPrefix(userID), *input.Upload); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "유효한 프로필 사진 또는 type이 제공되지 않았습니다.")
	}

	if err := s.users.UpdateColumns(ctx, userID, map[string]any{"profile_photo": url}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile photo")
	}

	if old := user.ProfilePhoto; old != nil && *old != url && strings.HasPrefix(s.uploader.KeyOf(*old), PhotoPrefix(userID)+"/") {
		if err := s.uploader.RemoveURL(ctx, *old); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "profile.photo.remove_failed")
		}
	}

	return &PhotoDTO{
		Message:         "프로필 사진이 성공적으로 업데이트되었습니다.",
		ProfilePhotoURL: url,
	}, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
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

func (s *service) primaryStore(ctx context.Context, userID uuid.UUID) (*stores.StoreDTO, error) {
	store, err := s.stores.Primary(ctx, userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return store, nil
}

// PhotoPrefix is the storage folder holding a user's profile photos.
func PhotoPrefix(userID uuid.UUID) string {
	return media.ProfilePhotoPrefix("user", userID)
}
