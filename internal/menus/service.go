package menus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

// Service manages the menu board of a store.
type Service interface {
	List(ctx context.Context, ownerID, storeID uuid.UUID) ([]MenuDTO, error)
	ListBySlug(ctx context.Context, slug string) ([]MenuDTO, error)
	Create(ctx context.Context, ownerID, storeID uuid.UUID, inputs []CreateInput) ([]MenuDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, number int64, input UpdateInput) (*MenuDTO, error)
	Delete(ctx context.Context, ownerID, storeID uuid.UUID, number int64) error
	Categories(ctx context.Context, ownerID, storeID uuid.UUID) ([]CategoryOption, error)
	DeleteCategory(ctx context.Context, ownerID, storeID uuid.UUID, category string) error
	Import(ctx context.Context, storeID uuid.UUID, r io.Reader) (*ImportResult, error)
}

// ServiceParams groups the menu service dependencies.
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

// NewService builds the menu service.
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

// SequenceName is the counter that hands out menu numbers for a store.
func SequenceName(storeID uuid.UUID) string {
	return "menu:" + storeID.String()
}

func (s *service) List(ctx context.Context, ownerID, storeID uuid.UUID) ([]MenuDTO, error) {
	if err := s.ensureOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.list(ctx, storeID)
}

func (s *service) ListBySlug(ctx context.Context, slug string) ([]MenuDTO, error) {
	store, err := stores.NewRepository(s.db.DB()).FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, storeNotFound(err)
	}
	return s.list(ctx, store.ID)
}

func (s *service) list(ctx context.Context, storeID uuid.UUID) ([]MenuDTO, error) {
	rows, err := NewRepository(s.db.DB()).ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list menus")
	}
	return toDTOs(rows), nil
}

func (s *service) Create(ctx context.Context, ownerID, storeID uuid.UUID, inputs []CreateInput) ([]MenuDTO, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "등록할 메뉴가 없습니다.")
	}
	if err := s.ensureOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	rows := make([]*models.Menu, 0, len(inputs))
	for i, in := range inputs {
		menu, err := buildMenu(storeID, in)
		if err != nil {
			return nil, pkgerrors.As(err).WithDetails(map[string]any{"index": i})
		}
		if in.Image != nil {
			if err := media.Validate(media.KindImage, in.Image.Filename); err != nil {
				return nil, err
			}
		}
		rows = append(rows, menu)
	}

	uploaded, err := s.uploadImages(ctx, storeID, inputs, rows)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := insertNumbered(ctx, tx, storeID, rows); err != nil {
			return err
		}
		return RecomputeMenuPrice(ctx, tx, storeID)
	})
	if err != nil {
		s.removeAll(ctx, uploaded)
		return nil, err
	}

	out := make([]MenuDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, *FromModel(row))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, number int64, input UpdateInput) (*MenuDTO, error) {
	if err := s.ensureOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	current, err := NewRepository(s.db.DB()).FindByNumber(ctx, storeID, number)
	if err != nil {
		return nil, menuNotFound(err)
	}

	var imageURL string
	if input.Image != nil {
		if err := media.Validate(media.KindImage, input.Image.Filename); err != nil {
			return nil, err
		}
		if _, imageURL, err = s.uploader.SaveNamed(ctx, media.MenuImagePrefix(storeID), *input.Image); err != nil {
			return nil, err
		}
	}

	var updated *models.Menu
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		menu, err := repo.FindByNumber(ctx, storeID, number)
		if err != nil {
			return menuNotFound(err)
		}
		if err := applyUpdate(menu, input); err != nil {
			return err
		}
		if imageURL != "" {
			menu.Image = &imageURL
		}
		if err := repo.Save(ctx, menu); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save menu")
		}
		updated = menu
		return RecomputeMenuPrice(ctx, tx, storeID)
	})
	if err != nil {
		if imageURL != "" {
			s.removeAll(ctx, []string{imageURL})
		}
		return nil, err
	}

	if current.Image != nil && (imageURL != "" || input.ClearImage) {
		s.removeAll(ctx, []string{*current.Image})
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, ownerID, storeID uuid.UUID, number int64) error {
	if err := s.ensureOwner(ctx, ownerID, storeID); err != nil {
		return err
	}
	var image *string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		menu, err := repo.FindByNumber(ctx, storeID, number)
		if err != nil {
			return menuNotFound(err)
		}
		if err := repo.Delete(ctx, menu.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete menu")
		}
		image = menu.Image
		return RecomputeMenuPrice(ctx, tx, storeID)
	})
	if err != nil {
		return err
	}
	if image != nil {
		s.removeAll(ctx, []string{*image})
	}
	return nil
}

func (s *service) Categories(ctx context.Context, ownerID, storeID uuid.UUID) ([]CategoryOption, error) {
	if err := s.ensureOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	names, err := NewRepository(s.db.DB()).Categories(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryOption, 0, len(names))
	for _, name := range names {
		out = append(out, CategoryOption{Value: name, Label: name})
	}
	return out, nil
}

func (s *service) DeleteCategory(ctx context.Context, ownerID, storeID uuid.UUID, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "카테고리를 입력해주세요.")
	}
	if err := s.ensureOwner(ctx, ownerID, storeID); err != nil {
		return err
	}
	var images []string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		rows, err := repo.ListByCategory(ctx, storeID, category)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list category menus")
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "해당 카테고리의 메뉴가 없습니다.")
		}
		if _, err := repo.DeleteByCategory(ctx, storeID, category); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category menus")
		}
		for _, row := range rows {
			if row.Image != nil {
				images = append(images, *row.Image)
			}
		}
		return RecomputeMenuPrice(ctx, tx, storeID)
	})
	if err != nil {
		return err
	}
	s.removeAll(ctx, images)
	return nil
}

// Import loads menus from the onboarding spreadsheet. Invalid rows are
// reported and skipped, valid rows are saved together.
func (s *service) Import(ctx context.Context, storeID uuid.UUID, r io.Reader) (*ImportResult, error) {
	parsed, skipped, err := parseSheet(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "엑셀 파일을 읽을 수 없습니다.")
	}

	result := &ImportResult{Skipped: skipped}
	var rowErrs error
	rows := make([]*models.Menu, 0, len(parsed))
	for _, line := range parsed {
		menu, err := buildMenu(storeID, line.Input)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %s", line.Line, pkgerrors.As(err).Message()))
			continue
		}
		rows = append(rows, menu)
	}
	for _, e := range multierr.Errors(rowErrs) {
		result.Errors = append(result.Errors, e.Error())
	}
	result.Skipped += len(result.Errors)
	if rowErrs != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"store_id": storeID.String(),
			"errors":   rowErrs.Error(),
		}), "menus.import.rows_rejected")
	}
	if len(rows) == 0 {
		result.Created = []MenuDTO{}
		return result, nil
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := stores.NewRepository(tx).FindByID(ctx, storeID); err != nil {
			return storeNotFound(err)
		}
		if err := insertNumbered(ctx, tx, storeID, rows); err != nil {
			return err
		}
		return RecomputeMenuPrice(ctx, tx, storeID)
	})
	if err != nil {
		return nil, err
	}

	result.Created = make([]MenuDTO, 0, len(rows))
	for _, row := range rows {
		result.Created = append(result.Created, *FromModel(row))
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"store_id": storeID.String(),
		"created":  len(rows),
		"skipped":  result.Skipped,
	}), "menus.import.completed")
	return result, nil
}

func (s *service) ensureOwner(ctx context.Context, ownerID, storeID uuid.UUID) error {
	if _, err := stores.NewRepository(s.db.DB()).FindOwned(ctx, ownerID, storeID); err != nil {
		return storeNotFound(err)
	}
	return nil
}

func (s *service) uploadImages(ctx context.Context, storeID uuid.UUID, inputs []CreateInput, rows []*models.Menu) ([]string, error) {
	var uploaded []string
	for i, in := range inputs {
		if in.Image == nil {
			continue
		}
		_, url, err := s.uploader.SaveNamed(ctx, media.MenuImagePrefix(storeID), *in.Image)
		if err != nil {
			s.removeAll(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, url)
		rows[i].Image = &url
	}
	return uploaded, nil
}

func (s *service) removeAll(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.uploader.RemoveURL(ctx, url); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"url": url, "error": err.Error()}), "menus.image.remove_failed")
		}
	}
}

// insertNumbered assigns menu numbers from the store sequence and inserts rows.
// The sequence is first raised past any number already in use.
func insertNumbered(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, rows []*models.Menu) error {
	repo := NewRepository(tx)
	max, err := repo.MaxNumber(ctx, storeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read menu numbers")
	}
	name := SequenceName(storeID)
	if err := db.SeedSequence(tx, name, max); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed menu sequence")
	}
	for _, row := range rows {
		number, err := db.NextSequence(tx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next menu number")
		}
		row.MenuNumber = number
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create menu")
		}
	}
	return nil
}

// RecomputeMenuPrice rewrites the store's menu_price snapshot from the menus
// table. Every menu write goes through it inside the same transaction.
func RecomputeMenuPrice(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) error {
	rows, err := NewRepository(tx).ListByStore(ctx, storeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list menus")
	}
	entries := make([]priceEntry, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, priceEntry{
			MenuNumber: m.MenuNumber,
			Name:       m.Name,
			Price:      m.Price,
			Category:   m.Category,
			Image:      m.Image,
			Spicy:      m.Spicy.String(),
			Allergy:    m.Allergy,
			Origin:     m.Origin,
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode menu price")
	}
	if err := stores.NewRepository(tx).UpdateColumns(ctx, storeID, map[string]any{"menu_price": string(raw)}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store menu price")
	}
	return nil
}

func buildMenu(storeID uuid.UUID, in CreateInput) (*models.Menu, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "메뉴 이름을 입력해주세요.")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	spicy, err := parseSpicy(in.Spicy)
	if err != nil {
		return nil, err
	}
	return &models.Menu{
		StoreID:      storeID,
		Name:         name,
		Price:        price,
		Category:     trimmed(in.Category),
		Spicy:        spicy,
		Allergy:      trimmed(in.Allergy),
		Origin:       trimmed(in.Origin),
		Introduction: trimmed(in.Introduction),
	}, nil
}

func applyUpdate(menu *models.Menu, in UpdateInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "메뉴 이름을 입력해주세요.")
		}
		menu.Name = name
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price)
		if err != nil {
			return err
		}
		menu.Price = price
	}
	if in.Spicy != nil {
		spicy, err := parseSpicy(in.Spicy)
		if err != nil {
			return err
		}
		menu.Spicy = spicy
	}
	if in.Category != nil {
		menu.Category = trimmed(in.Category)
	}
	if in.Allergy != nil {
		menu.Allergy = trimmed(in.Allergy)
	}
	if in.Origin != nil {
		menu.Origin = trimmed(in.Origin)
	}
	if in.Introduction != nil {
		menu.Introduction = trimmed(in.Introduction)
	}
	if in.ClearImage {
		menu.Image = nil
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "가격은 숫자로 입력해주세요.")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "가격은 0 이상이어야 합니다.")
	}
	return price.Round(2), nil
}

func parseSpicy(raw *string) (enums.SpicyLevel, error) {
	if raw == nil {
		return enums.SpicyLevelNone, nil
	}
	level, err := enums.ParseSpicyLevel(*raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "맵기 값이 올바르지 않습니다.")
	}
	return level, nil
}

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

func toDTOs(rows []models.Menu) []MenuDTO {
	out := make([]MenuDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func storeNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "가게를 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
}

func menuNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "메뉴를 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load menu")
}
