package menus

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
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
	svc    Service
	client *db.Client
	owner  uuid.UUID
	store  uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	uploader, err := media.NewUploader(backend)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{DB: client, Uploader: uploader})
	require.NoError(t, err)

	user := &models.User{Username: "menuowner", PasswordHash: "hash", Phone: "010-1234-5678", IsActive: true}
	require.NoError(t, client.DB().Create(user).Error)
	var store *models.Store
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		store, err = stores.CreateForSignup(context.Background(), tx, stores.CreateInput{OwnerID: user.ID, Name: "국수집"})
		return err
	})
	require.NoError(t, err)
	return fixture{svc: svc, client: client, owner: user.ID, store: store.ID}
}

func (f fixture) menuPrice(t *testing.T) []priceEntry {
	t.Helper()
	store, err := stores.NewRepository(f.client.DB()).FindByID(context.Background(), f.store)
	require.NoError(t, err)
	require.NotNil(t, store.MenuPrice)
	var entries []priceEntry
	require.NoError(t, json.Unmarshal([]byte(*store.MenuPrice), &entries))
	return entries
}

func strPtr(v string) *string { return &v }

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.owner, f.store, []CreateInput{
		{Name: "잔치국수", Price: "7000", Category: strPtr("국수"), Spicy: strPtr("없음")},
		{Name: "비빔국수", Price: "8000.5", Category: strPtr("국수"), Spicy: strPtr("매움")},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.EqualValues(t, 1, created[0].MenuNumber)
	require.EqualValues(t, 2, created[1].MenuNumber)
	require.Equal(t, "hot", created[1].Spicy)

	more, err := f.svc.Create(ctx, f.owner, f.store, []CreateInput{{Name: "만두", Price: "5000"}})
	require.NoError(t, err)
	require.EqualValues(t, 3, more[0].MenuNumber)

	entries := f.menuPrice(t)
	require.Len(t, entries, 3)
	require.Equal(t, "비빔국수", entries[1].Name)
	require.Equal(t, "8000.5", entries[1].Price.String())
}

func TestCreateRejectsInvalidRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, f.store, []CreateInput{{Name: "ok", Price: "1000"}, {Name: "bad", Price: "-1"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.owner, f.store, []CreateInput{{Name: " ", Price: "1000"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, uuid.New(), f.store, []CreateInput{{Name: "x", Price: "1"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := f.svc.List(ctx, f.owner, f.store)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUpdateDeleteAndCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, f.store, []CreateInput{
		{Name: "잔치국수", Price: "7000", Category: strPtr("국수")},
		{Name: "콜라", Price: "2000", Category: strPtr("음료")},
		{Name: "사이다", Price: "2000", Category: strPtr("음료")},
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.owner, f.store, 1, UpdateInput{Price: strPtr("7500"), Origin: strPtr("국내산")})
	require.NoError(t, err)
	require.Equal(t, "7500", updated.Price.String())
	require.Equal(t, "잔치국수", updated.Name)
	require.Equal(t, "7500", f.menuPrice(t)[0].Price.String())

	_, err = f.svc.Update(ctx, f.owner, f.store, 99, UpdateInput{Name: strPtr("x")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	categories, err := f.svc.Categories(ctx, f.owner, f.store)
	require.NoError(t, err)
	require.Equal(t, []CategoryOption{{Value: "국수", Label: "국수"}, {Value: "음료", Label: "음료"}}, categories)

	require.NoError(t, f.svc.DeleteCategory(ctx, f.owner, f.store, "음료"))
	require.Len(t, f.menuPrice(t), 1)
	require.True(t, pkgerrors.IsCode(f.svc.DeleteCategory(ctx, f.owner, f.store, "음료"), pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.Delete(ctx, f.owner, f.store, 1))
	require.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.owner, f.store, 1), pkgerrors.CodeNotFound))
	require.Empty(t, f.menuPrice(t))
}

func TestListBySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.owner, f.store, []CreateInput{{Name: "잔치국수", Price: "7000"}})
	require.NoError(t, err)

	store, err := stores.NewRepository(f.client.DB()).FindByID(ctx, f.store)
	require.NoError(t, err)
	list, err := f.svc.ListBySlug(ctx, store.Slug)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.ListBySlug(ctx, "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestImportSpreadsheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"무물 메뉴 입력 양식"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{colName, colPrice, colCategory, colIntroduction, colSpicy, colAllergy, colOrigin}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]any{"김치찌개", "9,000", "찌개", "집밥 맛", "보통", "대두", "국내산"}))
	require.NoError(t, book.SetSheetRow(sheet, "A4", &[]any{"", "1000"}))
	require.NoError(t, book.SetSheetRow(sheet, "A5", &[]any{"된장찌개", "비쌈"}))
	require.NoError(t, book.SetSheetRow(sheet, "A6", &[]any{"계란말이", "6000"}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	result, err := f.svc.Import(ctx, f.store, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	require.Equal(t, "medium", result.Created[0].Spicy)
	require.Equal(t, "9000", result.Created[0].Price.String())
	require.Len(t, result.Errors, 1)
	require.True(t, strings.HasPrefix(result.Errors[0], "row 5"))
	require.Equal(t, 2, result.Skipped)
	require.Len(t, f.menuPrice(t), 2)

	_, err = f.svc.Import(ctx, f.store, strings.NewReader("not a workbook"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestIsImportTemplate(t *testing.T) {
	cases := map[string]bool{
		"무물_초기_데이터_입력_양식.xlsx":      true,
		"무물_초기_데이터_입력_양식(1).XLSX":   true,
		"uploads/무물_초기_데이터_입력_양식.xlsx": true,
		"무물_초기_데이터_입력_양식.csv":       false,
		"menu.xlsx":                  false,
	}
	for name, want := range cases {
		if got := IsImportTemplate(name); got != want {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestAnonymizeByStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.owner, f.store, []CreateInput{{Name: "잔치국수", Price: "7000"}})
	require.NoError(t, err)

	require.NoError(t, NewRepository(f.client.DB()).AnonymizeByStore(ctx, f.store))
	rows, err := NewRepository(f.client.DB()).ListByStore(ctx, f.store)
	require.NoError(t, err)
	require.Equal(t, "익명화된 메뉴_1", rows[0].Name)
	require.True(t, rows[0].Price.IsZero())
	require.Nil(t, rows[0].Image)
}
