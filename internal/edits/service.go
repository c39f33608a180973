package edits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/internal/publicusers"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/internal/users"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/slack"
)

const publicSlackPrefix = "public - "

type menuImporter interface {
	Import(ctx context.Context, storeID uuid.UUID, r io.Reader) (*menus.ImportResult, error)
}

// Service stores request-service submissions from both apps.
type Service interface {
	SubmitForStoreOwner(ctx context.Context, userID uuid.UUID, input SubmitInput) ([]EditDTO, error)
	SubmitForPublicStaff(ctx context.Context, publicUserID uuid.UUID, input SubmitInput) ([]EditDTO, error)
}

// ServiceParams groups the edit service dependencies. Menus and Slack are optional.
type ServiceParams struct {
	DB          *db.Client
	Uploader    *media.Uploader
	Menus       menuImporter
	ImportMenus bool
	Slack       slack.Notifier
	Logger      *logger.Logger
}

type service struct {
	db          *db.Client
	uploader    *media.Uploader
	menus       menuImporter
	importMenus bool
	slack       slack.Notifier
	logg        *logger.Logger
	now         func() time.Time
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
	return &service{
		db:          params.DB,
		uploader:    params.Uploader,
		menus:       params.Menus,
		importMenus: params.ImportMenus && params.Menus != nil,
		slack:       params.Slack,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// submitter is the account a request is filed for.
type submitter struct {
	userID       *uuid.UUID
	publicUserID *uuid.UUID
	username     string
	prefix       string
	slackPrefix  string
	storeID      *uuid.UUID
}

func (s *service) SubmitForStoreOwner(ctx context.Context, userID uuid.UUID, input SubmitInput) ([]EditDTO, error) {
	user, err := users.NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil || !user.IsActive {
		return nil, accountNotFound(err)
	}
	store, err := stores.NewRepository(s.db.DB()).PrimaryForOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "가게를 찾을 수 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return s.submit(ctx, submitter{
		userID:   &user.ID,
		username: user.Username,
		prefix:   media.StoreUploadsPrefix(store.ID),
		storeID:  &store.ID,
	}, input)
}

func (s *service) SubmitForPublicStaff(ctx context.Context, publicUserID uuid.UUID, input SubmitInput) ([]EditDTO, error) {
	user, err := publicusers.NewRepository(s.db.DB()).FindByID(ctx, publicUserID)
	if err != nil || !user.IsActive {
		return nil, accountNotFound(err)
	}
	return s.submit(ctx, submitter{
		publicUserID: &user.ID,
		username:     user.Username,
		prefix:       media.PublicUploadsPrefix(user.PublicID),
		slackPrefix:  publicSlackPrefix,
	}, input)
}

type savedFile struct {
	key      string
	url      string
	original string
}

func (s *service) submit(ctx context.Context, who submitter, input SubmitInput) ([]EditDTO, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "제목, 내용 또는 파일 중 하나는 입력해야 합니다.")
	}
	for _, f := range input.Files {
		if err := media.Validate(media.KindDocument, f.Filename); err != nil {
			return nil, err
		}
	}

	saved := make([]savedFile, 0, len(input.Files))
	for _, f := range input.Files {
		key, url, err := s.uploader.SaveNamed(ctx, who.prefix, f)
		if err != nil {
			s.cleanup(ctx, saved)
			return nil, err
		}
		saved = append(saved, savedFile{key: key, url: url, original: f.Filename})
	}

	created := make([]models.Edit, 0, max(len(saved), 1))
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		build := func(file *string) error {
			edit := models.Edit{
				UserID:       who.userID,
				PublicUserID: who.publicUserID,
				Title:        optional(input.Title),
				Content:      optional(input.Content),
				File:         file,
			}
			if err := repo.Create(ctx, &edit); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create edit")
			}
			created = append(created, edit)
			return nil
		}
		if len(saved) == 0 {
			return build(nil)
		}
		for i := range saved {
			if err := build(&saved[i].url); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.cleanup(ctx, saved)
		return nil, err
	}

	s.announce(ctx, who, input.Title)
	s.importTemplates(ctx, who, saved)

	out := make([]EditDTO, 0, len(created))
	for i := range created {
		out = append(out, *FromModel(&created[i]))
	}
	return out, nil
}

func (s *service) announce(ctx context.Context, who submitter, title string) {
	if s.slack == nil {
		return
	}
	msg := slack.RequestServiceMessage(who.slackPrefix, who.username, title, s.now())
	if err := s.slack.Notify(ctx, msg); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "edits.slack.notify_failed")
	}
}

// importTemplates feeds uploaded onboarding spreadsheets into the menu board.
// Failures are logged; the request itself is already stored.
func (s *service) importTemplates(ctx context.Context, who submitter, saved []savedFile) {
	if !s.importMenus || who.storeID == nil {
		return
	}
	for _, f := range saved {
		if !menus.IsImportTemplate(f.original) {
			continue
		}
		fields := s.logg.WithFields(ctx, map[string]any{"store_id": who.storeID.String(), "file": f.key})
		body, err := s.uploader.Store().Open(ctx, f.key)
		if err != nil {
			s.logg.Error(fields, "edits.menu_import.open_failed", err)
			continue
		}
		result, err := s.menus.Import(ctx, *who.storeID, body)
		_ = body.Close()
		if err != nil {
			s.logg.Error(fields, "edits.menu_import.failed", err)
			continue
		}
		s.logg.Info(s.logg.WithField(fields, "created", len(result.Created)), "edits.menu_import.completed")
	}
}

func (s *service) cleanup(ctx context.Context, saved []savedFile) {
	for _, f := range saved {
		if err := s.uploader.RemoveURL(ctx, f.url); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"file": f.key, "error": err.Error()}), "edits.file.remove_failed")
		}
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func accountNotFound(err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
}
