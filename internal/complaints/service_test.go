package complaints

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

type recordingSMS struct {
	to   []string
	body []string
	err  error
}

func (r *recordingSMS) Send(_ context.Context, receiver, message string) error {
	r.to = append(r.to, receiver)
	r.body = append(r.body, message)
	return r.err
}

type fixture struct {
	svc    *service
	client *db.Client
	sms    *recordingSMS
	public *models.Public
	etc    *models.PublicDepartment
	civil  *models.PublicDepartment
	staff  *models.PublicUser
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	ctx := context.Background()

	public := &models.Public{Name: "마포구청", Slug: "mapo"}
	require.NoError(t, client.DB().Create(public).Error)
	repo := departments.NewRepository(client.DB())
	etc, err := repo.GetOrCreate(ctx, public.ID, departments.DefaultName)
	require.NoError(t, err)
	civil, err := repo.GetOrCreate(ctx, public.ID, "민원과")
	require.NoError(t, err)
	staff := &models.PublicUser{PublicID: public.ID, DepartmentID: &etc.ID, Username: "clerk", PasswordHash: "hash", Phone: "010-3333-4444", IsActive: true}
	require.NoError(t, client.DB().Create(staff).Error)

	sms := &recordingSMS{}
	svc, err := NewService(ServiceParams{DB: client, SMS: sms, SendSMS: true, Location: time.UTC})
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 5, 2, 23, 30, 0, 0, time.UTC) }
	return fixture{svc: impl, client: client, sms: sms, public: public, etc: etc, civil: civil, staff: staff}
}

func validRequest() CreateRequest {
	return CreateRequest{
		Slug:       "mapo",
		Department: departments.DefaultName,
		Name:       "김시민",
		BirthDate:  "900101",
		Phone:      "01077778888",
		Title:      "가로등 고장",
		Content:    "집 앞 가로등이 꺼져 있습니다.",
	}
}

func TestCreateIssuesDailyNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	require.Equal(t, "20260502-001", first.ComplaintNumber)

	second, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	require.Equal(t, "20260502-002", second.ComplaintNumber)

	f.svc.now = func() time.Time { return time.Date(2026, 5, 3, 0, 5, 0, 0, time.UTC) }
	next, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	require.Equal(t, "20260503-001", next.ComplaintNumber)
}

func TestCreateUsesSeoulDate(t *testing.T) {
	f := newFixture(t)
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	f.svc.loc = seoul

	res, err := f.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "20260503-001", res.ComplaintNumber)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateRequest)
		code   pkgerrors.Code
	}{
		{"missing slug", func(r *CreateRequest) { r.Slug = "" }, pkgerrors.CodeValidation},
		{"unknown public", func(r *CreateRequest) { r.Slug = "nowhere" }, pkgerrors.CodeValidation},
		{"missing title", func(r *CreateRequest) { r.Title = " " }, pkgerrors.CodeValidation},
		{"missing department", func(r *CreateRequest) { r.Department = "" }, pkgerrors.CodeValidation},
		{"unknown department", func(r *CreateRequest) { r.Department = "없는과" }, pkgerrors.CodeNotFound},
		{"bad birth date", func(r *CreateRequest) { r.BirthDate = "1990-01-01" }, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := f.svc.Create(ctx, req)
			require.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	req := validRequest()
	req.Department = "민원과"
	_, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
}

func TestLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	res, err := f.svc.Lookup(ctx, LookupRequest{ComplaintNumber: created.ComplaintNumber, Phone: "010-7777-8888"})
	require.NoError(t, err)
	require.Equal(t, "가로등 고장", res.Complaint.Title)
	require.Equal(t, enums.ComplaintStatusReceived, res.Complaint.Status)
	require.Len(t, res.Complaint.CreatedAt, len("2006-01-02"))

	_, err = f.svc.Lookup(ctx, LookupRequest{ComplaintNumber: created.ComplaintNumber, Phone: "010-0000-0000"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.Lookup(ctx, LookupRequest{Phone: "010-7777-8888"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	ok, err := NewRepository(f.client.DB()).ExistsByNumberAndPhone(ctx, created.ComplaintNumber, "010-7777-8888")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStaffWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.staff.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	_, err = f.svc.UpdateStatus(ctx, f.staff.ID, id, "보류")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.UpdateStatus(ctx, f.staff.ID, id, "처리중")
	require.NoError(t, err)

	_, err = f.svc.Transfer(ctx, f.staff.ID, id, TransferRequest{DepartmentName: departments.DefaultName})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.Transfer(ctx, f.staff.ID, id, TransferRequest{DepartmentName: "없는과"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Answer(ctx, f.staff.ID, id, "수리 완료했습니다.")
	require.NoError(t, err)
	require.Equal(t, []string{"010-7777-8888"}, f.sms.to)

	_, err = f.svc.Transfer(ctx, f.staff.ID, id, TransferRequest{DepartmentName: "민원과", Reason: "담당 부서"})
	require.NoError(t, err)

	var stored models.PublicComplaint
	require.NoError(t, f.client.DB().First(&stored, "id = ?", id).Error)
	require.Equal(t, enums.ComplaintStatusCompleted, stored.Status)
	require.Equal(t, f.civil.ID, *stored.DepartmentID)
	require.Equal(t, "담당 부서", *stored.TransferReason)
	require.Equal(t, "수리 완료했습니다.", *stored.Answer)

	list, err = f.svc.List(ctx, f.staff.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStaffCannotTouchOtherPublics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	list, err := f.svc.List(ctx, f.staff.ID)
	require.NoError(t, err)

	other := &models.Public{Name: "용산구청", Slug: "yongsan"}
	require.NoError(t, f.client.DB().Create(other).Error)
	outsider := &models.PublicUser{PublicID: other.ID, Username: "outsider", PasswordHash: "hash", Phone: "010-9999-0000", IsActive: true}
	require.NoError(t, f.client.DB().Create(outsider).Error)

	_, err = f.svc.Answer(ctx, outsider.ID, list[0].ID, "답변")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.List(ctx, outsider.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.UpdateStatus(ctx, uuid.New(), list[0].ID, "완료")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAnswerSurvivesSMSFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	list, err := f.svc.List(ctx, f.staff.ID)
	require.NoError(t, err)

	f.sms.err = errors.New("gateway down")
	res, err := f.svc.Answer(ctx, f.staff.ID, list[0].ID, "처리했습니다.")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, AnsweredMessage(list[0].ComplaintNumber), f.sms.body[0])
}
