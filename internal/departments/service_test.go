package departments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

func seedPublic(t *testing.T, client *db.Client, name, slug string) *models.Public {
	t.Helper()
	public := &models.Public{Name: name, Slug: slug}
	require.NoError(t, client.DB().Create(public).Error)
	return public
}

func TestListDepartments(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{DB: client})
	require.NoError(t, err)
	ctx := context.Background()
	public := seedPublic(t, client, "구청", "gu")

	names, err := svc.List(ctx, "gu", "")
	require.NoError(t, err)
	require.Equal(t, []string{DefaultName}, names)

	_, err = svc.Create(ctx, CreateInput{DepartmentName: "민원과", PublicID: public.ID.String()})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{DepartmentName: "건축과", PublicID: public.ID.String()})
	require.NoError(t, err)

	names, err = svc.List(ctx, "", public.ID.String())
	require.NoError(t, err)
	require.Equal(t, []string{"건축과", DefaultName, "민원과"}, names)

	_, err = svc.List(ctx, "", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.List(ctx, "missing", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateDepartmentErrors(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{DB: client})
	require.NoError(t, err)
	ctx := context.Background()
	public := seedPublic(t, client, "구청", "gu")

	_, err = svc.Create(ctx, CreateInput{DepartmentName: "민원과"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{DepartmentName: "민원과", PublicID: uuid.NewString()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Create(ctx, CreateInput{DepartmentName: "민원과", PublicID: public.ID.String()})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{DepartmentName: "민원과", PublicID: public.ID.String()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestMoveStaff(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{DB: client})
	require.NoError(t, err)
	ctx := context.Background()
	public := seedPublic(t, client, "구청", "gu")

	repo := NewRepository(client.DB())
	start, err := repo.GetOrCreate(ctx, public.ID, DefaultName)
	require.NoError(t, err)
	again, err := repo.GetOrCreate(ctx, public.ID, DefaultName)
	require.NoError(t, err)
	require.Equal(t, start.ID, again.ID)

	staff := &models.PublicUser{PublicID: public.ID, DepartmentID: &start.ID, Username: "clerk01", PasswordHash: "hash", Phone: "010-2222-3333", IsActive: true}
	require.NoError(t, client.DB().Create(staff).Error)

	_, err = svc.Move(ctx, staff.ID, DefaultName)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	result, err := svc.Move(ctx, staff.ID, "교통과")
	require.NoError(t, err)
	require.Equal(t, "교통과", result.Department.Name)

	reloaded, err := repo.Staff(ctx, staff.ID)
	require.NoError(t, err)
	require.Equal(t, result.Department.ID, *reloaded.DepartmentID)

	_, err = svc.Move(ctx, uuid.New(), "교통과")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
