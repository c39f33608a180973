package edits

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

type recordingSlack struct {
	messages []string
}

func (r *recordingSlack) Notify(_ context.Context, text string) error {
	r.messages = append(r.messages, text)
	return nil
}

type recordingImporter struct {
	storeIDs []uuid.UUID
	bodies   []string
}

func (r *recordingImporter) Import(_ context.Context, storeID uuid.UUID, body io.Reader) (*menus.ImportResult, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	r.storeIDs = append(r.storeIDs, storeID)
	r.bodies = append(r.bodies, string(raw))
	return &menus.ImportResult{}, nil
}

type fixture struct {
	svc      Service
	client   *db.Client
	slack    *recordingSlack
	importer *recordingImporter
	owner    *models.User
	store    *models.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)

	slack := &recordingSlack{}
	importer := &recordingImporter{}
	svc, err := NewService(ServiceParams{
		DB:          client,
		Uploader:    uploader,
		Menus:       importer,
		ImportMenus: true,
		Slack:       slack,
	})
	require.NoError(t, err)

	owner := &models.User{Username: "editor", PasswordHash: "hash", Phone: "010-9999-0000", IsActive: true}
	require.NoError(t, client.DB().Create(owner).Error)
	var store *models.Store
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		store, err = stores.CreateForSignup(context.Background(), tx, stores.CreateInput{OwnerID: owner.ID, Name: "편집 가게"})
		return err
	})
	require.NoError(t, err)
	return fixture{svc: svc, client: client, slack: slack, importer: importer, owner: owner, store: store}
}

func upload(name, body string) media.Upload {
	return media.Upload{Filename: name, Body: strings.NewReader(body)}
}

func TestSubmitForStoreOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.SubmitForStoreOwner(ctx, f.owner.ID, SubmitInput{
		Title:   "메뉴 수정",
		Content: "가격을 바꿔주세요",
		Files:   []media.Upload{upload("menu.pdf", "pdf"), upload("photo.png", "png")},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	prefix := "/media/" + media.StoreUploadsPrefix(f.store.ID) + "/"
	for _, edit := range created {
		require.NotNil(t, edit.File)
		require.True(t, strings.HasPrefix(*edit.File, prefix), *edit.File)
		require.Equal(t, "메뉴 수정", *edit.Title)
	}
	require.Len(t, f.slack.messages, 1)
	require.Contains(t, f.slack.messages[0], "사용자: editor")
	require.Empty(t, f.importer.storeIDs)

	created, err = f.svc.SubmitForStoreOwner(ctx, f.owner.ID, SubmitInput{Content: "파일 없이"})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Nil(t, created[0].File)
	require.Nil(t, created[0].Title)

	rows, err := NewRepository(f.client.DB()).ListByUser(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitForStoreOwner(ctx, f.owner.ID, SubmitInput{Title: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.SubmitForStoreOwner(ctx, f.owner.ID, SubmitInput{Title: "x", Files: []media.Upload{upload("run.exe", "MZ")}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.SubmitForStoreOwner(ctx, uuid.New(), SubmitInput{Title: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Empty(t, f.slack.messages)
}

func TestSubmitTemplateTriggersImport(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitForStoreOwner(context.Background(), f.owner.ID, SubmitInput{
		Files: []media.Upload{upload(menus.ImportTemplatePrefix+".xlsx", "sheet-bytes")},
	})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{f.store.ID}, f.importer.storeIDs)
	require.Equal(t, []string{"sheet-bytes"}, f.importer.bodies)
}

func TestSubmitForPublicStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	public := &models.Public{Name: "구청", Slug: "gu"}
	require.NoError(t, f.client.DB().Create(public).Error)
	staff := &models.PublicUser{PublicID: public.ID, Username: "clerk01", PasswordHash: "hash", Phone: "010-2222-3333", IsActive: true}
	require.NoError(t, f.client.DB().Create(staff).Error)

	created, err := f.svc.SubmitForPublicStaff(ctx, staff.ID, SubmitInput{
		Title: "요청",
		Files: []media.Upload{upload(menus.ImportTemplatePrefix+".xlsx", "ignored")},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.True(t, strings.HasPrefix(*created[0].File, "/media/"+media.PublicUploadsPrefix(public.ID)+"/"))
	require.True(t, strings.HasPrefix(f.slack.messages[0], "public - "))
	require.Empty(t, f.importer.storeIDs)

	require.NoError(t, NewRepository(f.client.DB()).AnonymizeByPublicUser(ctx, staff.ID))
	rows, err := NewRepository(f.client.DB()).ListByPublicUser(ctx, staff.ID)
	require.NoError(t, err)
	require.Equal(t, "익명화된 내용", *rows[0].Content)
	require.Nil(t, rows[0].File)
}
