package users

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

type fixture struct {
	svc      Service
	client   *db.Client
	uploader *media.Uploader
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)
	storeSvc, err := stores.NewService(stores.ServiceParams{DB: client, Uploader: uploader})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Users:    NewRepository(client.DB()),
		Stores:   storeSvc,
		Uploader: uploader,
	})
	require.NoError(t, err)
	return fixture{svc: svc, client: client, uploader: uploader}
}

func (f fixture) createOwner(t *testing.T, username, phone, storeName string) *models.User {
	t.Helper()
	name := "홍길동"
	user := &models.User{Username: username, PasswordHash: "hash", Phone: phone, Name: &name, IsActive: true}
	require.NoError(t, f.client.DB().Create(user).Error)
	if storeName != "" {
		err := f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
			_, err := stores.CreateForSignup(context.Background(), tx, stores.CreateInput{OwnerID: user.ID, Name: storeName})
			return err
		})
		require.NoError(t, err)
	}
	return user
}

func TestProfileIncludesStore(t *testing.T) {
	f := newFixture(t)
	user := f.createOwner(t, "cafeowner", "010-1111-2222", "무물 카페")

	profile, err := f.svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "cafeowner", profile.UserID)
	require.Equal(t, "무물 카페", profile.BusinessName)
	require.Equal(t, "010-1111-2222", profile.PhoneNumber)
	require.Empty(t, profile.QRCodeURL)

	loner := f.createOwner(t, "nostore", "010-3333-4444", "")
	profile, err = f.svc.Profile(context.Background(), loner.ID)
	require.NoError(t, err)
	require.Empty(t, profile.BusinessName)

	_, err = f.svc.Profile(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	user := f.createOwner(t, "cafeowner", "010-1111-2222", "무물 카페")
	f.createOwner(t, "neighbor", "010-9999-8888", "")

	taken := "01099998888"
	_, err := f.svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{PhoneNumber: &taken})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	phone := "01055556666"
	business := "무물 베이커리"
	address := "서울시 마포구"
	marketing := true
	profile, err := f.svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		PhoneNumber:     &phone,
		BusinessName:    &business,
		BusinessAddress: &address,
		Marketing:       &marketing,
	})
	require.NoError(t, err)
	require.Equal(t, "010-5555-6666", profile.PhoneNumber)
	require.Equal(t, "무물 베이커리", profile.BusinessName)
	require.Equal(t, "서울시 마포구", profile.BusinessAddress)
	require.True(t, profile.Marketing)

	var store models.Store
	require.NoError(t, f.client.DB().Where("owner_id = ?", user.ID).First(&store).Error)
	require.Equal(t, "무물-베이커리", store.Slug)
}

func TestUpdatePhoto(t *testing.T) {
	f := newFixture(t)
	user := f.createOwner(t, "cafeowner", "010-1111-2222", "")
	ctx := context.Background()

	_, err := f.svc.UpdatePhoto(ctx, user.ID, PhotoInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	uploaded, err := f.svc.UpdatePhoto(ctx, user.ID, PhotoInput{
		Upload: &media.Upload{Filename: "me.jpg", Body: strings.NewReader("jpg")},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uploaded.ProfilePhotoURL, "/media/"+PhotoPrefix(user.ID)+"/"))

	def, err := f.svc.UpdatePhoto(ctx, user.ID, PhotoInput{UseDefault: true})
	require.NoError(t, err)
	require.Equal(t, "/media/"+media.DefaultProfilePhotoKey, def.ProfilePhotoURL)

	exists, err := f.uploader.Store().Exists(ctx, f.uploader.KeyOf(uploaded.ProfilePhotoURL))
	require.NoError(t, err)
	require.False(t, exists, "replaced photo should be removed")
}

func TestAnonymize(t *testing.T) {
	f := newFixture(t)
	user := f.createOwner(t, "leaving", "010-1234-0000", "")
	repo := NewRepository(f.client.DB())

	require.NoError(t, repo.Anonymize(context.Background(), user.ID, user.CreatedAt))

	got, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.NotNil(t, got.DeactivatedAt)
	require.Equal(t, "deleted_user_"+user.ID.String(), got.Username)
	require.Equal(t, "000-0000-0000_"+user.ID.String(), got.Phone)
	require.Equal(t, "deleted_"+user.ID.String()+"@example.com", *got.Email)
	require.Equal(t, "탈퇴한 사용자", *got.Name)

	_, err = repo.FindActiveByUsername(context.Background(), "leaving")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
