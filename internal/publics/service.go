package publics

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
	"github.com/leanai/mumul-backend/pkg/slug"
)

const slugAttempts = 5

// Service manages public institutions.
type Service interface {
	List(ctx context.Context) ([]PublicDTO, error)
	Get(ctx context.Context, publicID uuid.UUID) (*PublicDTO, error)
	GetBySlug(ctx context.Context, slug string) (*PublicDTO, error)
	Create(ctx context.Context, input CreateInput) (*PublicDTO, error)
	UserInfo(ctx context.Context, publicUserID uuid.UUID) (*UserInfoDTO, error)
}

type ServiceParams struct {
	DB       *db.Client
	Uploader *media.Uploader
	Logger   *logger.Logger
}

type service struct {
	db       *db.Client
	uploader *media.Uploader
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{db: params.DB, uploader: params.Uploader, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]PublicDTO, error) {
	rows, err := NewRepository(s.db.DB()).List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list publics")
	}
	out := make([]PublicDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, publicID uuid.UUID) (*PublicDTO, error) {
	public, err := NewRepository(s.db.DB()).FindByID(ctx, publicID)
	if err != nil {
		return nil, notFound(err)
	}
	return FromModel(public), nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*PublicDTO, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "공공기관을 찾을 수 없습니다.")
	}
	public, err := NewRepository(s.db.DB()).FindBySlug(ctx, value)
	if err != nil {
		return nil, notFound(err)
	}
	return FromModel(public), nil
}

// Create registers a public with a unique slug and its default department.
func (s *service) Create(ctx context.Context, input CreateInput) (*PublicDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "기관 이름을 입력해주세요.")
	}
	base := slug.Make(name)
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "기관 이름으로 주소를 만들 수 없습니다.")
	}

	taken, err := NewRepository(s.db.DB()).NameTaken(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check public name")
	}
	if taken {
		return nil, errNameTaken
	}

	// the logo folder is keyed by the public id, so the id is fixed before insert
	id := uuid.New()
	var logoURL string
	if input.Logo != nil {
		if err := media.Validate(media.KindImage, input.Logo.Filename); err != nil {
			return nil, err
		}
		if _, logoURL, err = s.uploader.SaveUnique(ctx, media.LogoPrefix(id), *input.Logo); err != nil {
			return nil, err
		}
	}
	return s.create(ctx, id, name, base, input, logoURL)
}

func (s *service) create(ctx context.Context, id uuid.UUID, name, base string, input CreateInput, logoURL string) (*PublicDTO, error) {
	public := &models.Public{
		ID:           id,
		Name:         name,
		Address:      trimmed(input.Address),
		Tel:          trimmed(input.Tel),
		OpeningHours: trimmed(input.OpeningHours),
		AgentID:      trimmed(input.AgentID),
	}
	if logoURL != "" {
		public.Logo = &logoURL
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		err := db.RetryUnique(tx, "public_slug", "slug", slugAttempts, func(tx *gorm.DB) error {
			candidate, err := slug.Unique(base, func(c string) (bool, error) {
				return repo.SlugTaken(ctx, c)
			})
			if err != nil {
				return err
			}
			public.Slug = candidate
			return NewRepository(tx).Create(ctx, public)
		})
		if err != nil {
			if db.IsUniqueViolation(err, "name") {
				return errNameTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create public")
		}
		if _, err := departments.NewRepository(tx).GetOrCreate(ctx, public.ID, departments.DefaultName); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create default department")
		}
		return nil
	})
	if err != nil {
		if logoURL != "" {
			if rmErr := s.uploader.RemoveURL(ctx, logoURL); rmErr != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", rmErr.Error()), "publics.logo.remove_failed")
			}
		}
		return nil, err
	}
	return FromModel(public), nil
}

func (s *service) UserInfo(ctx context.Context, publicUserID uuid.UUID) (*UserInfoDTO, error) {
	deptRepo := departments.NewRepository(s.db.DB())
	staff, err := deptRepo.Staff(ctx, publicUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load staff")
	}
	public, err := NewRepository(s.db.DB()).FindByID(ctx, staff.PublicID)
	if err != nil {
		return nil, notFound(err)
	}

	info := &UserInfoDTO{
		User: StaffDTO{
			ID:       staff.ID,
			Username: staff.Username,
			Name:     staff.Name,
			Phone:    staff.Phone,
			Email:    staff.Email,
		},
		Public: FromModel(public),
	}
	if staff.DepartmentID != nil {
		dept, err := deptRepo.FindByID(ctx, *staff.DepartmentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department")
		}
		if dept != nil {
			info.Department = departments.FromModel(dept)
		}
	}
	return info, nil
}

var errNameTaken = pkgerrors.New(pkgerrors.CodeConflict, "이미 존재하는 기관 이름입니다.")

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "공공기관을 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load public")
}
