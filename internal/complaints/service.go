// Package complaints handles citizen complaints filed against a public and
// the staff workflow around them.
package complaints

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/pkg/aligo"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/types"
)

var (
	birthDatePattern     = regexp.MustCompile(`^\d{6}$`)
	errComplaintNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "민원을 찾을 수 없습니다.")
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)
	Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error)
	List(ctx context.Context, staffID uuid.UUID) ([]ComplaintDTO, error)
	UpdateStatus(ctx context.Context, staffID, complaintID uuid.UUID, status string) (*ActionResult, error)
	Transfer(ctx context.Context, staffID, complaintID uuid.UUID, req TransferRequest) (*ActionResult, error)
	Answer(ctx context.Context, staffID, complaintID uuid.UUID, answer string) (*ActionResult, error)
}

type ServiceParams struct {
	DB       *db.Client
	SMS      aligo.Sender
	SendSMS  bool
	Location *time.Location
	Logger   *logger.Logger
}

type service struct {
	db      *db.Client
	repo    *Repository
	sms     aligo.Sender
	sendSMS bool
	loc     *time.Location
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.SendSMS && params.SMS == nil {
		return nil, fmt.Errorf("sms sender required when complaint sms is enabled")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		db:      params.DB,
		repo:    NewRepository(params.DB.DB()),
		sms:     params.SMS,
		sendSMS: params.SendSMS,
		loc:     loc,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// SequenceName is the counter backing complaint numbers issued on day.
func SequenceName(day string) string {
	return "complaint:" + day
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	slugValue := strings.TrimSpace(req.Slug)
	if slugValue == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug가 필요합니다.")
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	deptName := strings.TrimSpace(req.Department)
	if title == "" || content == "" || deptName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "제목, 내용, 부서를 모두 입력해주세요.")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "이름을 입력해주세요.")
	}
	birth := strings.TrimSpace(req.BirthDate)
	if !birthDatePattern.MatchString(birth) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "생년월일은 6자리(YYMMDD)로 입력해주세요.")
	}
	phone := types.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "전화번호를 입력해주세요.")
	}

	complaint := &models.PublicComplaint{
		Name:      name,
		BirthDate: birth,
		Phone:     phone,
		Email:     trimmedOrNil(req.Email),
		Title:     title,
		Content:   content,
		Status:    enums.ComplaintStatusReceived,
	}
	day := s.now().In(s.loc).Format("20060102")

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		deptRepo := departments.NewRepository(tx)
		public, err := deptRepo.PublicBySlug(ctx, slugValue)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "공공기관이 유효하지 않습니다.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load public")
		}
		complaint.PublicID = public.ID

		var dept *models.PublicDepartment
		if deptName == departments.DefaultName {
			dept, err = deptRepo.GetOrCreate(ctx, public.ID, deptName)
		} else {
			dept, err = deptRepo.FindByName(ctx, public.ID, deptName)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "부서를 찾을 수 없습니다.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve department")
		}
		complaint.DepartmentID = &dept.ID

		number, err := nextNumber(ctx, tx, day)
		if err != nil {
			return err
		}
		complaint.ComplaintNumber = number
		if err := NewRepository(tx).Create(ctx, complaint); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create complaint")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"public_id":        complaint.PublicID.String(),
		"complaint_number": complaint.ComplaintNumber,
	}), "complaint.created")
	return &CreateResponse{
		Status:          "success",
		Message:         "민원이 성공적으로 접수되었습니다.",
		ComplaintNumber: complaint.ComplaintNumber,
	}, nil
}

// nextNumber issues YYYYMMDD-NNN from the daily counter.
func nextNumber(ctx context.Context, tx *gorm.DB, day string) (string, error) {
	last, err := NewRepository(tx).LastDailyNumber(ctx, day)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read complaint numbers")
	}
	name := SequenceName(day)
	if err := db.SeedSequence(tx, name, last); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed complaint sequence")
	}
	n, err := db.NextSequence(tx, name)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next complaint number")
	}
	return fmt.Sprintf("%s-%03d", day, n), nil
}

func (s *service) Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error) {
	number := strings.TrimSpace(req.ComplaintNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "접수번호를 입력해 주세요.")
	}
	complaint, err := s.repo.FindByNumberAndPhone(ctx, number, types.NormalizePhone(req.Phone))
	if err != nil {
		return nil, complaintError(err, "lookup complaint")
	}
	return &LookupResponse{
		Success: true,
		Complaint: LookupDTO{
			ComplaintNumber: complaint.ComplaintNumber,
			Title:           complaint.Title,
			Name:            complaint.Name,
			CreatedAt:       complaint.CreatedAt.In(s.loc).Format("2006-01-02"),
			Status:          complaint.Status,
			Content:         complaint.Content,
			Answer:          complaint.Answer,
		},
	}, nil
}

func (s *service) List(ctx context.Context, staffID uuid.UUID) ([]ComplaintDTO, error) {
	staff, err := s.staff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.DepartmentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자가 속한 부서가 없습니다.")
	}
	rows, err := s.repo.ListByDepartment(ctx, staff.PublicID, *staff.DepartmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list complaints")
	}
	out := make([]ComplaintDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, staffID, complaintID uuid.UUID, raw string) (*ActionResult, error) {
	status, err := enums.ParseComplaintStatus(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "유효하지 않은 상태입니다.")
	}
	complaint, err := s.owned(ctx, staffID, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateColumns(ctx, complaint.ID, map[string]any{"status": status}); err != nil {
		return nil, complaintError(err, "update complaint status")
	}
	return &ActionResult{Success: true, Message: fmt.Sprintf("민원 상태가 '%s'로 변경되었습니다.", status)}, nil
}

func (s *service) Transfer(ctx context.Context, staffID, complaintID uuid.UUID, req TransferRequest) (*ActionResult, error) {
	name := strings.TrimSpace(req.DepartmentName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "이관할 부서를 입력해주세요.")
	}
	complaint, err := s.owned(ctx, staffID, complaintID)
	if err != nil {
		return nil, err
	}
	target, err := departments.NewRepository(s.db.DB()).FindByName(ctx, complaint.PublicID, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "부서를 찾을 수 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load department")
	}
	if complaint.DepartmentID != nil && *complaint.DepartmentID == target.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "현재 부서와 동일한 부서로 이관할 수 없습니다.")
	}
	values := map[string]any{"department_id": target.ID, "transfer_reason": trimmedOrNil(&req.Reason)}
	if err := s.repo.UpdateColumns(ctx, complaint.ID, values); err != nil {
		return nil, complaintError(err, "transfer complaint")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"complaint_number": complaint.ComplaintNumber,
		"department_id":    target.ID.String(),
	}), "complaint.transferred")
	return &ActionResult{Success: true, Message: "민원이 성공적으로 이관되었습니다."}, nil
}

func (s *service) Answer(ctx context.Context, staffID, complaintID uuid.UUID, answer string) (*ActionResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "답변을 입력해주세요.")
	}
	complaint, err := s.owned(ctx, staffID, complaintID)
	if err != nil {
		return nil, err
	}
	values := map[string]any{"answer": answer, "status": enums.ComplaintStatusCompleted}
	if err := s.repo.UpdateColumns(ctx, complaint.ID, values); err != nil {
		return nil, complaintError(err, "answer complaint")
	}

	if s.sendSMS {
		msg := AnsweredMessage(complaint.ComplaintNumber)
		if err := s.sms.Send(ctx, complaint.Phone, msg); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "complaint_number", complaint.ComplaintNumber), "complaint.answer.sms_failed", err)
		}
	}
	return &ActionResult{Success: true, Message: "답변이 성공적으로 저장되었습니다."}, nil
}

// AnsweredMessage is the SMS sent to a citizen once their complaint is answered.
func AnsweredMessage(number string) string {
	return fmt.Sprintf("[무물] 접수번호 %s 민원에 답변이 등록되었습니다.", number)
}

func (s *service) staff(ctx context.Context, staffID uuid.UUID) (*models.PublicUser, error) {
	staff, err := departments.NewRepository(s.db.DB()).Staff(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "해당 사용자는 공공기관이 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load staff")
	}
	return staff, nil
}

// owned loads a complaint of the caller's public. Complaints of other publics
// are reported as missing.
func (s *service) owned(ctx context.Context, staffID, complaintID uuid.UUID) (*models.PublicComplaint, error) {
	staff, err := s.staff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	complaint, err := s.repo.FindForPublic(ctx, complaintID, staff.PublicID)
	if err != nil {
		return nil, complaintError(err, "load complaint")
	}
	return complaint, nil
}

func complaintError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errComplaintNotFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
