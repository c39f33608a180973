package feeds

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/db"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/storage"
)

var errImageNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "파일을 찾을 수 없습니다.")

// Service manages the picture feed of a store.
type Service interface {
	List(ctx context.Context, ownerID, storeID uuid.UUID) ([]ImageDTO, error)
	ListBySlug(ctx context.Context, slug string) ([]ImageDTO, error)
	Upload(ctx context.Context, ownerID, storeID uuid.UUID, up *media.Upload) (*UploadResult, error)
	Delete(ctx context.Context, ownerID, storeID uuid.UUID, fileName string) error
	Rename(ctx context.Context, ownerID, storeID uuid.UUID, fileName, newName string) (*ImageDTO, error)
}

type ServiceParams struct {
	DB       *db.Client
	Uploader *media.Uploader
	Logger   *logger.Logger
}

type service struct {
	stores   *stores.Repository
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
	return &service{
		stores:   stores.NewRepository(params.DB.DB()),
		uploader: params.Uploader,
		logg:     logg,
	}, nil
}

func (s *service) List(ctx context.Context, ownerID, storeID uuid.UUID) ([]ImageDTO, error) {
	if err := s.owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.list(ctx, storeID)
}

func (s *service) ListBySlug(ctx context.Context, slug string) ([]ImageDTO, error) {
	store, err := s.stores.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, storeNotFound(err)
	}
	return s.list(ctx, store.ID)
}

func (s *service) list(ctx context.Context, storeID uuid.UUID) ([]ImageDTO, error) {
	objects, err := s.uploader.Store().List(ctx, media.StoreFeedPrefix(storeID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feed")
	}
	out := make([]ImageDTO, 0, len(objects))
	for _, obj := range objects {
		if !media.IsImage(obj.Name()) {
			continue
		}
		out = append(out, imageFromKey(s.uploader, obj.Key))
	}
	return out, nil
}

func (s *service) Upload(ctx context.Context, ownerID, storeID uuid.UUID, up *media.Upload) (*UploadResult, error) {
	if up == nil || up.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "파일이 필요합니다.")
	}
	if err := s.owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	if err := media.Validate(media.KindImage, up.Filename); err != nil {
		return nil, err
	}
	key, url, err := s.uploader.SaveNamed(ctx, media.StoreFeedPrefix(storeID), *up)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"store_id": storeID.String(), "key": key}), "feed.uploaded")
	return &UploadResult{FilePath: url, StoredName: path.Base(key)}, nil
}

func (s *service) Delete(ctx context.Context, ownerID, storeID uuid.UUID, fileName string) error {
	if err := s.owned(ctx, ownerID, storeID); err != nil {
		return err
	}
	key, err := feedKey(storeID, fileName)
	if err != nil {
		return err
	}
	if err := s.uploader.Store().Delete(ctx, key); err != nil {
		return storageError(err, "delete feed image")
	}
	return nil
}

func (s *service) Rename(ctx context.Context, ownerID, storeID uuid.UUID, fileName, newName string) (*ImageDTO, error) {
	stem := media.Stem(newName)
	if stem == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "새 파일 이름을 입력해주세요.")
	}
	if err := s.owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	from, err := feedKey(storeID, fileName)
	if err != nil {
		return nil, err
	}
	to := path.Join(media.StoreFeedPrefix(storeID), fmt.Sprintf("%s_%s%s", stem, uuid.NewString(), media.Ext(fileName)))
	if err := s.uploader.Store().Rename(ctx, from, to); err != nil {
		return nil, storageError(err, "rename feed image")
	}
	dto := imageFromKey(s.uploader, to)
	return &dto, nil
}

func (s *service) owned(ctx context.Context, ownerID, storeID uuid.UUID) error {
	if _, err := s.stores.FindOwned(ctx, ownerID, storeID); err != nil {
		return storeNotFound(err)
	}
	return nil
}

func feedKey(storeID uuid.UUID, fileName string) (string, error) {
	name := media.SanitizeFileName(fileName)
	if name == "" || name != strings.TrimSpace(fileName) {
		return "", errImageNotFound
	}
	return path.Join(media.StoreFeedPrefix(storeID), name), nil
}

func storageError(err error, action string) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return errImageNotFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func storeNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "가게를 찾을 수 없습니다.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
}
