package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/internal/users"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

type stubTokens struct {
	issued  []uuid.UUID
	tenant  *uuid.UUID
	revoked []string
}

func (s *stubTokens) Issue(_ context.Context, userID uuid.UUID, kind enums.AccountKind, tenantID *uuid.UUID) (*TokenPair, error) {
	s.issued = append(s.issued, userID)
	s.tenant = tenantID
	return &TokenPair{Access: "access-" + kind.String(), Refresh: "refresh"}, nil
}

func (s *stubTokens) Refresh(context.Context, enums.AccountKind, RefreshRequest) (*TokenPair, error) {
	return &TokenPair{Access: "rotated", Refresh: "rotated"}, nil
}

func (s *stubTokens) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubGrants struct {
	allow map[string]bool
}

func (g *stubGrants) ConsumeResetGrant(_ context.Context, accountID uuid.UUID, phone string) (bool, error) {
	key := accountID.String() + ":" + phone
	ok := g.allow[key]
	delete(g.allow, key)
	return ok, nil
}

type recordingSlack struct{ messages []string }

func (r *recordingSlack) Notify(_ context.Context, text string) error {
	r.messages = append(r.messages, text)
	return nil
}

type fixture struct {
	svc      Service
	client   *db.Client
	tokens   *stubTokens
	grants   *stubGrants
	slack    *recordingSlack
	uploader *media.Uploader
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)

	f := fixture{
		client:   client,
		tokens:   &stubTokens{},
		grants:   &stubGrants{allow: map[string]bool{}},
		slack:    &recordingSlack{},
		uploader: uploader,
	}
	f.svc, err = NewService(ServiceParams{
		DB:          client,
		Tokens:      f.tokens,
		ResetGrants: f.grants,
		Uploader:    uploader,
		Slack:       f.slack,
		Password:    config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Flags:       config.FeatureFlagsConfig{RequireResetOTP: true, SlackOnSignup: true},
	})
	require.NoError(t, err)
	return f
}

func validSignup() SignupRequest {
	return SignupRequest{
		Username:  "cafeowner",
		Password:  "Passw0rd!",
		Name:      "홍길동",
		DOB:       "1990-05-01",
		Phone:     "01012345678",
		Marketing: true,
		StoreName: "무물 카페",
	}
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, []string{"새로운 사용자 cafeowner가 가입했습니다!"}, f.slack.messages)

	user, err := users.NewRepository(f.client.DB()).FindByID(ctx, resp.UserID)
	require.NoError(t, err)
	require.Equal(t, "010-1234-5678", user.Phone)
	require.NotEqual(t, "Passw0rd!", user.PasswordHash)

	login, err := f.svc.Login(ctx, LoginRequest{Username: "cafeowner", Password: "Passw0rd!"})
	require.NoError(t, err)
	require.Equal(t, resp.StoreID, login.StoreID)
	require.Equal(t, resp.UserID, login.UserID)
	require.Equal(t, "access-store_owner", login.Access)
	require.Equal(t, resp.StoreID, *f.tokens.tenant)

	_, err = f.svc.Login(ctx, LoginRequest{Username: "cafeowner", Password: "wrong"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.Login(ctx, LoginRequest{Username: "nobody", Password: "Passw0rd!"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestSignupRejectsTakenStoreWithoutWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	req := validSignup()
	req.Username = "second"
	req.Phone = "010-9999-8888"
	_, err = f.svc.Signup(ctx, req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = users.NewRepository(f.client.DB()).FindActiveByUsername(ctx, "second")
	require.Error(t, err)
	require.Len(t, f.slack.messages, 1)
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*SignupRequest){
		"username": func(r *SignupRequest) { r.Username = "Bad" },
		"password": func(r *SignupRequest) { r.Password = "short" },
		"dob":      func(r *SignupRequest) { r.DOB = "90-05-01" },
		"phone":    func(r *SignupRequest) { r.Phone = "" },
	}
	for name, mutate := range cases {
		req := validSignup()
		mutate(&req)
		if _, err := f.svc.Signup(context.Background(), req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestLoginWithoutStore(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	require.NoError(t, f.client.DB().Delete(&models.Store{}, "id = ?", resp.StoreID).Error)

	_, err = f.svc.Login(context.Background(), LoginRequest{Username: "cafeowner", Password: "Passw0rd!"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCheckUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	_, err = f.svc.CheckUsername(ctx, "cafeowner")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	resp, err := f.svc.CheckUsername(ctx, "freename")
	require.NoError(t, err)
	require.False(t, resp.IsDuplicate)
}

func TestResetPasswordRequiresGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	req := ResetPasswordRequest{Phone: "010-1234-5678", NewPassword: "NewPassw0rd"}
	err = f.svc.ResetPassword(ctx, req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	f.grants.allow[resp.UserID.String()+":010-1234-5678"] = true
	require.NoError(t, f.svc.ResetPassword(ctx, req))
	_, err = f.svc.Login(ctx, LoginRequest{Username: "cafeowner", Password: "NewPassw0rd"})
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "grant is single use")

	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Phone: "010-0000-1111", NewPassword: "NewPassw0rd"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Phone: "010-1234-5678", NewPassword: "weak"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	menuSvc, err := menus.NewService(menus.ServiceParams{DB: f.client, Uploader: f.uploader})
	require.NoError(t, err)
	_, err = menuSvc.Create(ctx, resp.UserID, resp.StoreID, []menus.CreateInput{{Name: "아메리카노", Price: "4000"}})
	require.NoError(t, err)
	title := "문의"
	require.NoError(t, f.client.DB().Create(&models.Edit{UserID: &resp.UserID, Title: &title}).Error)

	_, err = f.uploader.SaveAs(ctx, media.StoreQRKey(resp.StoreID), media.Upload{Filename: "qr.png", Body: strings.NewReader("qr")})
	require.NoError(t, err)
	_, _, err = f.uploader.SaveUnique(ctx, media.BannerPrefix(resp.StoreID), media.Upload{Filename: "b.png", Body: strings.NewReader("b")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Deactivate(ctx, resp.UserID, "jti-1"))
	require.Equal(t, []string{"jti-1"}, f.tokens.revoked)

	user, err := users.NewRepository(f.client.DB()).FindByID(ctx, resp.UserID)
	require.NoError(t, err)
	require.False(t, user.IsActive)
	require.NotNil(t, user.DeactivatedAt)
	require.Equal(t, "deleted_user_"+resp.UserID.String(), user.Username)
	require.Equal(t, "000-0000-0000_"+resp.UserID.String(), user.Phone)

	store, err := stores.NewRepository(f.client.DB()).FindByID(ctx, resp.StoreID)
	require.NoError(t, err)
	require.Equal(t, "deleted-store_"+resp.StoreID.String(), store.Slug)
	require.NotNil(t, store.MenuPrice)
	require.NotContains(t, *store.MenuPrice, "아메리카노")
	require.NotContains(t, *store.MenuPrice, `"price":"4000"`)
	require.Contains(t, *store.MenuPrice, "익명화된 메뉴_1")

	menuRows, err := menus.NewRepository(f.client.DB()).ListByStore(ctx, resp.StoreID)
	require.NoError(t, err)
	require.Equal(t, "익명화된 메뉴_1", menuRows[0].Name)

	var edit models.Edit
	require.NoError(t, f.client.DB().First(&edit, "user_id = ?", resp.UserID).Error)
	require.Equal(t, "익명화된 내용", *edit.Content)

	ok, err := f.uploader.Store().Exists(ctx, media.StoreQRKey(resp.StoreID))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = f.svc.Login(ctx, LoginRequest{Username: "cafeowner", Password: "Passw0rd!"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.True(t, pkgerrors.IsCode(f.svc.Deactivate(ctx, resp.UserID, ""), pkgerrors.CodeNotFound))

	again, err := f.svc.Signup(ctx, validSignup())
	require.NoError(t, err, "username, phone and store name are free again")
	require.NotEqual(t, resp.UserID, again.UserID)
}
