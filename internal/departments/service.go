package departments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

// DefaultName is the catch-all department every public owns.
const DefaultName = "기타"

// DepartmentDTO is a department payload.
type DepartmentDTO struct {
	ID       uuid.UUID `json:"department_id"`
	Name     string    `json:"department_name"`
	PublicID uuid.UUID `json:"public_id"`
}

func FromModel(d *models.PublicDepartment) *DepartmentDTO {
	return &DepartmentDTO{ID: d.ID, Name: d.Name, PublicID: d.PublicID}
}

// CreateInput adds a department to a public.
type CreateInput struct {
	DepartmentName string `json:"department_name" validate:"required"`
	PublicID       string `json:"public_id" validate:"required"`
}

// MoveResult reports the caller's new department.
type MoveResult struct {
	Message    string        `json:"message"`
	Department DepartmentDTO `json:"department"`
}

// Service manages departments of public institutions.
type Service interface {
	List(ctx context.Context, slug, publicID string) ([]string, error)
	Create(ctx context.Context, input CreateInput) (*DepartmentDTO, error)
	Move(ctx context.Context, publicUserID uuid.UUID, name string) (*MoveResult, error)
}

type ServiceParams struct {
	DB     *db.Client
	Logger *logger.Logger
}

type service struct {
	db   *db.Client
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{db: params.DB, logg: logg}, nil
}

// List resolves the public by slug or id and returns its department names.
// The default department is always part of the answer.
func (s *service) List(ctx context.Context, slug, publicID string) ([]string, error) {
	slug, publicID = strings.TrimSpace(slug), strings.TrimSpace(publicID)
	repo := NewRepository(s.db.DB())

	var (
		public *models.Public
		err    error
	)
	switch {
	case slug != "":
		public, err = repo.PublicBySlug(ctx, slug)
	case publicID != "":
		id, parseErr := uuid.Parse(publicID)
		if parseErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "공공기관을 찾을 수 없습니다.")
		}
		public, err = repo.PublicByID(ctx, id)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug 또는 public_id가 필요합니다.")
	}
	if err != nil {
		return nil, publicNotFound(err)
	}

	names, err := repo.Names(ctx, public.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list departments")
	}
	return withDefault(names), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DepartmentDTO, error) {
	name := strings.TrimSpace(input.DepartmentName)
	if name == "" || strings.TrimSpace(input.PublicID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "부서 이름과 public_id가 필요합니다.")
	}
	publicID, err := uuid.Parse(strings.TrimSpace(input.PublicID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "공공기관을 찾을 수 없습니다.")
	}

	repo := NewRepository(s.db.DB())
	if _, err := repo.PublicByID(ctx, publicID); err != nil {
		return nil, publicNotFound(err)
	}
	if _, err := repo.FindByName(ctx, publicID, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "이미 존재하는 부서입니다.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check department")
	}

	dept := &models.PublicDepartment{PublicID: publicID, Name: name}
	if err := repo.Create(ctx, dept); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "이미 존재하는 부서입니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create department")
	}
	return FromModel(dept), nil
}

// Move places the caller in the named department of their own public,
// creating it when needed.
func (s *service) Move(ctx context.Context, publicUserID uuid.UUID, name string) (*MoveResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "부서 이름을 입력해주세요.")
	}

	var moved *models.PublicDepartment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		staff, err := repo.Staff(ctx, publicUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load staff")
		}
		if staff.DepartmentID != nil {
			current, err := repo.FindByID(ctx, *staff.DepartmentID)
			if err == nil && current.Name == name {
				return pkgerrors.New(pkgerrors.CodeValidation, "현재 부서와 동일합니다.")
			}
		}
		dept, err := repo.GetOrCreate(ctx, staff.PublicID, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve department")
		}
		if err := repo.AssignStaff(ctx, staff.ID, dept.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move staff")
		}
		moved = dept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &MoveResult{Message: "부서가 변경되었습니다.", Department: *FromModel(moved)}, nil
}

func withDefault(names []string) []string {
	for _, n := range names {
		if n == DefaultName {
			return names
		}
	}
	out := append(names, DefaultName)
	sort.Strings(out)
	return out
}

func publicNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "공공기관을 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load public")
}
