package publicusers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

type fixture struct {
	svc    Service
	client *db.Client
	staff  *models.PublicUser
	public *models.Public
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)
	depts, err := departments.NewService(departments.ServiceParams{DB: client})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{DB: client, Departments: depts, Uploader: uploader})
	require.NoError(t, err)

	address := "서울시 중구"
	public := &models.Public{Name: "중구청", Slug: "junggu", Address: &address}
	require.NoError(t, client.DB().Create(public).Error)
	dept, err := departments.NewRepository(client.DB()).GetOrCreate(context.Background(), public.ID, departments.DefaultName)
	require.NoError(t, err)
	staff := &models.PublicUser{PublicID: public.ID, DepartmentID: &dept.ID, Username: "clerk01", PasswordHash: "hash", Phone: "010-2222-3333", IsActive: true}
	require.NoError(t, client.DB().Create(staff).Error)
	return fixture{svc: svc, client: client, staff: staff, public: public}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	profile, err := f.svc.Profile(context.Background(), f.staff.ID)
	require.NoError(t, err)
	require.Equal(t, "clerk01", profile.UserID)
	require.Equal(t, "중구청", profile.BusinessName)
	require.Equal(t, "서울시 중구", profile.BusinessAddress)
	require.Equal(t, departments.DefaultName, profile.Department)

	_, err = f.svc.Profile(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProfileDepartmentAndPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	same := departments.DefaultName
	_, err := f.svc.UpdateProfile(ctx, f.staff.ID, UpdateProfileInput{DepartmentName: &same})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	dept := "민원과"
	photo := "default"
	name := " 김주무관 "
	profile, err := f.svc.UpdateProfile(ctx, f.staff.ID, UpdateProfileInput{Name: &name, DepartmentName: &dept, ProfilePhoto: &photo})
	require.NoError(t, err)
	require.Equal(t, "민원과", profile.Department)
	require.Equal(t, "김주무관", profile.Name)
	require.Equal(t, "/media/"+media.DefaultProfilePhotoKey, profile.ProfilePhoto)

	upload := &media.Upload{Filename: "me.jpg", Body: bytes.NewReader([]byte("jpg"))}
	profile, err = f.svc.UpdateProfile(ctx, f.staff.ID, UpdateProfileInput{PhotoUpload: upload})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(profile.ProfilePhoto, "/media/"+PhotoPrefix(f.staff.ID)+"/"))

	empty := ""
	profile, err = f.svc.UpdateProfile(ctx, f.staff.ID, UpdateProfileInput{ProfilePhoto: &empty})
	require.NoError(t, err)
	require.Empty(t, profile.ProfilePhoto)

	bogus := "http://elsewhere/photo.png"
	_, err = f.svc.UpdateProfile(ctx, f.staff.ID, UpdateProfileInput{ProfilePhoto: &bogus})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProfilePhoneConflict(t *testing.T) {
	f := newFixture(t)
	other := &models.PublicUser{PublicID: f.public.ID, Username: "clerk02", PasswordHash: "hash", Phone: "010-4444-5555", IsActive: true}
	require.NoError(t, f.client.DB().Create(other).Error)

	phone := "01044445555"
	_, err := f.svc.UpdateProfile(context.Background(), f.staff.ID, UpdateProfileInput{PhoneNumber: &phone})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	phone = "01066667777"
	profile, err := f.svc.UpdateProfile(context.Background(), f.staff.ID, UpdateProfileInput{PhoneNumber: &phone})
	require.NoError(t, err)
	require.Equal(t, "010-6666-7777", profile.PhoneNumber)
}

func TestAnonymize(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.client.DB())
	require.NoError(t, repo.Anonymize(context.Background(), f.staff.ID, f.staff.CreatedAt))

	row, err := repo.FindByID(context.Background(), f.staff.ID)
	require.NoError(t, err)
	require.False(t, row.IsActive)
	require.Equal(t, "010-0000-0000_"+f.staff.ID.String(), row.Phone)
	require.Equal(t, "deleted_user_"+f.staff.ID.String(), row.Username)
}
