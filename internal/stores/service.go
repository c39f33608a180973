package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/slug"
)

const slugAttempts = 5

// Service exposes store operations for owners and the public storefront.
type Service interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error)
	Get(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreDTO, error)
	Primary(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateInput) (*StoreDTO, error)
	GetBySlug(ctx context.Context, slug string) (*StoreDTO, error)
}

// ServiceParams groups the store service dependencies.
type ServiceParams struct {
	DB       *db.Client
	Uploader *media.Uploader
	Logger   *logger.Logger
}

type service struct {
	db       *db.Client
	repo     *Repository
	uploader *media.Uploader
	logg     *logger.Logger
}

// NewService builds the store service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	return &service{
		db:       params.DB,
		repo:     NewRepository(params.DB.DB()),
		uploader: params.Uploader,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stores")
	}
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, notFound(err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) Primary(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.PrimaryForOwner(ctx, ownerID)
	if err != nil {
		return nil, notFound(err, "load primary store")
	}
	return FromModel(store), nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*StoreDTO, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "가게를 찾을 수 없습니다.")
	}
	store, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, notFound(err, "load storefront")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateInput) (*StoreDTO, error) {
	current, err := s.repo.FindOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, notFound(err, "load store")
	}
	if input.empty() {
		return FromModel(current), nil
	}

	var bannerURL string
	if input.Banner != nil {
		if err := media.Validate(media.KindImage, input.Banner.Filename); err != nil {
			return nil, err
		}
		if _, bannerURL, err = s.uploader.SaveUnique(ctx, media.BannerPrefix(storeID), *input.Banner); err != nil {
			return nil, err
		}
	}

	var updated *models.Store
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		store, err := repo.FindOwned(ctx, ownerID, storeID)
		if err != nil {
			return notFound(err, "load store")
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "가게 이름을 입력해주세요.")
			}
			if name != store.Name {
				taken, err := repo.NameTaken(ctx, name, store.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check store name")
				}
				if taken {
					return pkgerrors.New(pkgerrors.CodeConflict, "이미 존재하는 가게 이름입니다.")
				}
				store.Name = name
				if err := assignUniqueSlug(ctx, tx, store); err != nil {
					return err
				}
			}
		}
		applyOptional(&store.Address, input.Address)
		applyOptional(&store.Category, input.Category)
		applyOptional(&store.Introduction, input.Introduction)
		applyOptional(&store.OpeningHours, input.OpeningHours)
		applyOptional(&store.AgentID, input.AgentID)
		if input.ClearBanner {
			store.Banner = nil
		}
		if bannerURL != "" {
			store.Banner = &bannerURL
		}

		if err := repo.Save(ctx, store); err != nil {
			if db.IsUniqueViolation(err, "name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "이미 존재하는 가게 이름입니다.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save store")
		}
		updated = store
		return nil
	})
	if err != nil {
		if bannerURL != "" {
			s.removeBestEffort(ctx, bannerURL)
		}
		return nil, err
	}

	if current.Banner != nil && (input.ClearBanner || bannerURL != "") {
		s.removeBestEffort(ctx, *current.Banner)
	}
	return FromModel(updated), nil
}

func (s *service) removeBestEffort(ctx context.Context, url string) {
	if err := s.uploader.RemoveURL(ctx, url); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"url": url, "error": err.Error()}), "store.banner.remove_failed")
	}
}

// assignUniqueSlug derives a slug from store.Name and probes -1, -2, ... until
// a free one is stored. The unique index backs the probe; a concurrent writer
// that wins the same candidate sends us around the loop again.
func assignUniqueSlug(ctx context.Context, tx *gorm.DB, store *models.Store) error {
	base := slug.Make(store.Name)
	if base == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "가게 이름으로 주소를 만들 수 없습니다.")
	}
	repo := NewRepository(tx)
	err := db.RetryUnique(tx, "store_slug", "slug", slugAttempts, func(tx *gorm.DB) error {
		candidate, err := slug.Unique(base, func(c string) (bool, error) {
			return repo.SlugTaken(ctx, c, store.ID)
		})
		if err != nil {
			return err
		}
		if err := NewRepository(tx).UpdateColumns(ctx, store.ID, map[string]any{"slug": candidate}); err != nil {
			return err
		}
		store.Slug = candidate
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign store slug")
	}
	return nil
}

// CreateForSignup inserts the store of a new owner inside tx. A taken name or
// a name whose slug is already used is rejected instead of suffixed, so the
// signup form can ask for a different name.
func CreateForSignup(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Store, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "가게 이름을 입력해주세요.")
	}
	value := slug.Make(name)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "가게 이름으로 주소를 만들 수 없습니다.")
	}

	repo := NewRepository(tx)
	nameTaken, err := repo.NameTaken(ctx, name, uuid.Nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check store name")
	}
	slugTaken, err := repo.SlugTaken(ctx, value, uuid.Nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check store slug")
	}
	if nameTaken || slugTaken {
		return nil, ErrStoreNameTaken
	}

	store := &models.Store{
		OwnerID:  input.OwnerID,
		Name:     name,
		Slug:     value,
		Category: input.Category,
		Address:  input.Address,
	}
	if err := repo.Create(ctx, store); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrStoreNameTaken
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create store")
	}
	return store, nil
}

// ErrStoreNameTaken is returned when a signup picks a store name in use.
var ErrStoreNameTaken = pkgerrors.New(pkgerrors.CodeValidation, "이미 존재하는 가게 이름입니다.")

func applyOptional(dst **string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}

func notFound(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "가게를 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
