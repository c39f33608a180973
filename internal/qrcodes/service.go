// Package qrcodes renders the QR codes printed on tables and counters. Each
// code points at the store or public introduction page.
package qrcodes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/publics"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

const defaultSize = 330

type GenerateResult struct {
	QRCodeURL    string `json:"qr_code_url"`
	QRContentURL string `json:"qr_content_url"`
}

type StoreQRDTO struct {
	StoreName      string  `json:"store_name"`
	QRCodeImageURL *string `json:"qr_code_image_url"`
	QRContentURL   string  `json:"qr_content_url"`
}

type PublicQRDTO struct {
	PublicName     string  `json:"public_name"`
	QRCodeImageURL *string `json:"qr_code_image_url"`
	QRContentURL   string  `json:"qr_content_url"`
}

type Service interface {
	GenerateForStore(ctx context.Context, ownerID, storeID uuid.UUID) (*GenerateResult, error)
	GetForStore(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreQRDTO, error)
	GenerateForPublic(ctx context.Context, publicID uuid.UUID) (*GenerateResult, error)
	GetForPublic(ctx context.Context, publicID uuid.UUID) (*PublicQRDTO, error)
}

type ServiceParams struct {
	DB       *db.Client
	Uploader *media.Uploader
	Config   config.QRConfig
	Logger   *logger.Logger
}

type service struct {
	stores   *stores.Repository
	publics  *publics.Repository
	uploader *media.Uploader
	cfg      config.QRConfig
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if strings.TrimSpace(params.Config.ContentBaseURL) == "" {
		return nil, fmt.Errorf("qr content base url required")
	}
	cfg := params.Config
	if cfg.Size <= 0 {
		cfg.Size = defaultSize
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		stores:   stores.NewRepository(params.DB.DB()),
		publics:  publics.NewRepository(params.DB.DB()),
		uploader: params.Uploader,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

// StoreContentURL is the page a store's QR code opens.
func StoreContentURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/storeIntroduction/" + slug
}

// PublicContentURL is the page a public's QR code opens.
func PublicContentURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/publicIntroduction/" + slug
}

func (s *service) GenerateForStore(ctx context.Context, ownerID, storeID uuid.UUID) (*GenerateResult, error) {
	store, err := s.stores.FindOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, notFound(err, "가게를 찾을 수 없습니다.", "load store")
	}
	content := StoreContentURL(s.cfg.ContentBaseURL, store.Slug)
	url, err := s.render(ctx, media.StoreQRKey(store.ID), content)
	if err != nil {
		return nil, err
	}
	if err := s.stores.UpdateColumns(ctx, store.ID, map[string]any{"qr_code": url}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save store qr code")
	}
	s.logg.Info(s.logg.WithField(ctx, "store_id", store.ID.String()), "qrcode.store.generated")
	return &GenerateResult{QRCodeURL: url, QRContentURL: content}, nil
}

func (s *service) GetForStore(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreQRDTO, error) {
	store, err := s.stores.FindOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, notFound(err, "가게를 찾을 수 없습니다.", "load store")
	}
	return &StoreQRDTO{
		StoreName:      store.Name,
		QRCodeImageURL: store.QRCode,
		QRContentURL:   StoreContentURL(s.cfg.ContentBaseURL, store.Slug),
	}, nil
}

func (s *service) GenerateForPublic(ctx context.Context, publicID uuid.UUID) (*GenerateResult, error) {
	public, err := s.publics.FindByID(ctx, publicID)
	if err != nil {
		return nil, notFound(err, "공공기관을 찾을 수 없습니다.", "load public")
	}
	content := PublicContentURL(s.cfg.ContentBaseURL, public.Slug)
	url, err := s.render(ctx, media.PublicQRKey(public.ID), content)
	if err != nil {
		return nil, err
	}
	if err := s.publics.UpdateColumns(ctx, public.ID, map[string]any{"qr_code": url}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save public qr code")
	}
	s.logg.Info(s.logg.WithField(ctx, "public_id", public.ID.String()), "qrcode.public.generated")
	return &GenerateResult{QRCodeURL: url, QRContentURL: content}, nil
}

func (s *service) GetForPublic(ctx context.Context, publicID uuid.UUID) (*PublicQRDTO, error) {
	public, err := s.publics.FindByID(ctx, publicID)
	if err != nil {
		return nil, notFound(err, "공공기관을 찾을 수 없습니다.", "load public")
	}
	return &PublicQRDTO{
		PublicName:     public.Name,
		QRCodeImageURL: public.QRCode,
		QRContentURL:   PublicContentURL(s.cfg.ContentBaseURL, public.Slug),
	}, nil
}

// render encodes content with high error correction and overwrites key.
func (s *service) render(ctx context.Context, key, content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.High, s.cfg.Size)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode qr code")
	}
	return s.uploader.SaveAs(ctx, key, media.Upload{
		Filename:    key,
		ContentType: "image/png",
		Size:        int64(len(png)),
		Body:        bytes.NewReader(png),
	})
}

func notFound(err error, message, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
