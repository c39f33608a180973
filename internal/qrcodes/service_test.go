package qrcodes

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestStoreQRCode(t *testing.T) {
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{DB: client, Uploader: uploader, Config: config.QRConfig{ContentBaseURL: "https://mumulai.com/"}})
	require.NoError(t, err)
	ctx := context.Background()

	owner := &models.User{Username: "owner1", PasswordHash: "hash", Phone: "010-1111-2222", IsActive: true}
	require.NoError(t, client.DB().Create(owner).Error)
	store := &models.Store{OwnerID: owner.ID, Name: "무물 카페", Slug: "mumul-cafe"}
	require.NoError(t, client.DB().Create(store).Error)

	before, err := svc.GetForStore(ctx, owner.ID, store.ID)
	require.NoError(t, err)
	require.Nil(t, before.QRCodeImageURL)
	require.Equal(t, "https://mumulai.com/storeIntroduction/mumul-cafe", before.QRContentURL)

	res, err := svc.GenerateForStore(ctx, owner.ID, store.ID)
	require.NoError(t, err)
	require.Equal(t, "/media/qr_codes/qr_"+store.ID.String()+".png", res.QRCodeURL)

	rc, err := backend.Open(ctx, media.StoreQRKey(store.ID))
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, pngMagic))

	after, err := svc.GetForStore(ctx, owner.ID, store.ID)
	require.NoError(t, err)
	require.NotNil(t, after.QRCodeImageURL)
	require.Equal(t, res.QRCodeURL, *after.QRCodeImageURL)

	_, err = svc.GenerateForStore(ctx, uuid.New(), store.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPublicQRCode(t *testing.T) {
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{DB: client, Uploader: uploader, Config: config.QRConfig{ContentBaseURL: "https://mumulai.com", Size: 128}})
	require.NoError(t, err)
	ctx := context.Background()

	public := &models.Public{Name: "마포구청", Slug: "mapo"}
	require.NoError(t, client.DB().Create(public).Error)

	res, err := svc.GenerateForPublic(ctx, public.ID)
	require.NoError(t, err)
	require.Equal(t, "https://mumulai.com/publicIntroduction/mapo", res.QRContentURL)
	require.Equal(t, "/media/qr_codes/public_qr_"+public.ID.String()+".png", res.QRCodeURL)

	got, err := svc.GetForPublic(ctx, public.ID)
	require.NoError(t, err)
	require.Equal(t, "마포구청", got.PublicName)
	require.Equal(t, res.QRCodeURL, *got.QRCodeImageURL)

	_, err = svc.GetForPublic(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresBaseURL(t *testing.T) {
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)
	if _, err := NewService(ServiceParams{DB: client, Uploader: uploader}); err == nil {
		t.Fatal("expected missing base url to fail")
	}
}
