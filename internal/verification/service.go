// Package verification sends and checks SMS one-time codes for both apps.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/pkg/aligo"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/security"
	"github.com/leanai/mumul-backend/pkg/types"
)

const (
	DefaultCodeTTL  = 300 * time.Second
	DefaultResetTTL = 10 * time.Minute
	codeDigits      = 6

	// MaxVerifyAttempts is how many wrong guesses one issued code absorbs
	// before it is discarded.
	MaxVerifyAttempts = 5
)

type codeStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Consume(ctx context.Context, key, expected string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	OTPKey(accountKind, purpose, phone string) string
	OTPAttemptsKey(accountKind, purpose, phone string) string
	ResetGrantKey(accountKind, phone string) string
}

// SendRequest is the body of /send-code. UserID carries the login id.
type SendRequest struct {
	Phone           string                    `json:"phone" validate:"required"`
	Type            enums.VerificationPurpose `json:"type" validate:"required"`
	UserID          string                    `json:"user_id"`
	ComplaintNumber string                    `json:"complaint_number"`
}

// VerifyRequest is the body of /verify-code.
type VerifyRequest struct {
	Phone           string                    `json:"phone" validate:"required"`
	Type            enums.VerificationPurpose `json:"type" validate:"required"`
	Code            string                    `json:"code"`
	UserID          string                    `json:"user_id"`
	ComplaintNumber string                    `json:"complaint_number"`
}

// SendResult acknowledges a dispatched code.
type SendResult struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

// VerifyResult carries what the purpose unlocks.
type VerifyResult struct {
	Message         string `json:"message"`
	UserID          string `json:"user_id,omitempty"`
	DateJoined      string `json:"date_joined,omitempty"`
	Phone           string `json:"phone,omitempty"`
	ComplaintNumber string `json:"complaint_number,omitempty"`
}

// Service runs the OTP flows for one account kind.
type Service interface {
	Send(ctx context.Context, actor *uuid.UUID, req SendRequest) (*SendResult, error)
	Verify(ctx context.Context, actor *uuid.UUID, req VerifyRequest) (*VerifyResult, error)
	ConsumeResetGrant(ctx context.Context, accountID uuid.UUID, phone string) (bool, error)
}

// ServiceParams groups the verification dependencies.
type ServiceParams struct {
	Kind       enums.AccountKind
	Directory  Directory
	Complaints ComplaintLookup
	Codes      codeStore
	SMS        aligo.Sender
	Logger     *logger.Logger
	Location   *time.Location
	CodeTTL    time.Duration
	ResetTTL   time.Duration
}

type service struct {
	kind       enums.AccountKind
	directory  Directory
	complaints ComplaintLookup
	codes      codeStore
	sms        aligo.Sender
	logg       *logger.Logger
	loc        *time.Location
	codeTTL    time.Duration
	resetTTL   time.Duration
	generate   func() (string, error)
}

// NewService builds the verification service.
func NewService(params ServiceParams) (Service, error) {
	if !params.Kind.IsValid() {
		return nil, fmt.Errorf("account kind required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("account directory required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("code store required")
	}
	if params.SMS == nil {
		return nil, fmt.Errorf("sms sender required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	codeTTL := params.CodeTTL
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	resetTTL := params.ResetTTL
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &service{
		kind:       params.Kind,
		directory:  params.Directory,
		complaints: params.Complaints,
		codes:      params.Codes,
		sms:        params.SMS,
		logg:       params.Logger,
		loc:        loc,
		codeTTL:    codeTTL,
		resetTTL:   resetTTL,
		generate:   func() (string, error) { return security.GenerateNumericCode(codeDigits) },
	}, nil
}

func (s *service) Send(ctx context.Context, actor *uuid.UUID, req SendRequest) (*SendResult, error) {
	phone, err := s.checkRequest(req.Phone, req.Type, req.UserID)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case enums.VerificationFindID:
		if _, err := s.lookup(s.directory.ByPhone(ctx, phone)); err != nil {
			return nil, err
		}
	case enums.VerificationFindPW:
		if _, err := s.lookup(s.directory.ByUsernameAndPhone(ctx, strings.TrimSpace(req.UserID), phone)); err != nil {
			return nil, err
		}
	case enums.VerificationMyPage:
		account, err := s.actorAccount(ctx, actor, req.UserID)
		if err != nil {
			return nil, err
		}
		if account.Phone == phone {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "현재 사용 중인 전화번호와 같습니다.")
		}
		if err := s.ensurePhoneFree(ctx, phone, account.ID); err != nil {
			return nil, err
		}
	case enums.VerificationSignup:
		if err := s.ensurePhoneFree(ctx, phone, uuid.Nil); err != nil {
			return nil, err
		}
	case enums.VerificationComplaint:
		if err := s.ensureComplaint(ctx, req.ComplaintNumber, phone); err != nil {
			return nil, err
		}
	}

	code, err := s.generate()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	key := s.codes.OTPKey(string(s.kind), string(req.Type), phone)
	if err := s.codes.Set(ctx, key, code, s.codeTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}
	// A fresh code starts with a fresh attempt budget.
	if err := s.codes.Del(ctx, s.codes.OTPAttemptsKey(string(s.kind), string(req.Type), phone)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset verification attempts")
	}

	if err := s.sms.Send(ctx, types.PhoneDigits(phone), aligo.VerificationMessage(code)); err != nil {
		if delErr := s.codes.Del(ctx, key); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "verification.code.cleanup_failed")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send sms")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"purpose": string(req.Type), "kind": string(s.kind)}), "verification.code.sent")
	}
	return &SendResult{
		Message:   "인증 번호가 발송되었습니다.",
		ExpiresIn: int(s.codeTTL / time.Second),
	}, nil
}

func (s *service) Verify(ctx context.Context, actor *uuid.UUID, req VerifyRequest) (*VerifyResult, error) {
	phone, err := s.checkRequest(req.Phone, req.Type, req.UserID)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "인증 번호를 입력해주세요.")
	}

	// Resolve the account before touching the code so a request that cannot
	// succeed never burns it.
	var account *Account
	switch req.Type {
	case enums.VerificationFindID:
		if account, err = s.lookup(s.directory.ByPhone(ctx, phone)); err != nil {
			return nil, err
		}
	case enums.VerificationFindPW:
		if account, err = s.lookup(s.directory.ByUsernameAndPhone(ctx, strings.TrimSpace(req.UserID), phone)); err != nil {
			return nil, err
		}
	case enums.VerificationMyPage:
		if account, err = s.actorAccount(ctx, actor, req.UserID); err != nil {
			return nil, err
		}
	case enums.VerificationComplaint:
		if err := s.ensureComplaint(ctx, req.ComplaintNumber, phone); err != nil {
			return nil, err
		}
	}

	key := s.codes.OTPKey(string(s.kind), string(req.Type), phone)
	attemptsKey := s.codes.OTPAttemptsKey(string(s.kind), string(req.Type), phone)
	ok, err := s.codes.Consume(ctx, key, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check verification code")
	}
	if !ok {
		return nil, s.recordFailedAttempt(ctx, key, attemptsKey)
	}
	if err := s.codes.Del(ctx, attemptsKey); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "verification.attempts.cleanup_failed")
	}

	result := &VerifyResult{Message: "인증이 완료되었습니다."}
	switch req.Type {
	case enums.VerificationFindID:
		result.UserID = account.Username
		result.DateJoined = account.CreatedAt.In(s.loc).Format("2006.01.02")
	case enums.VerificationFindPW:
		result.UserID = account.Username
		result.DateJoined = account.CreatedAt.In(s.loc).Format("2006.01.02")
		grant := s.codes.ResetGrantKey(string(s.kind), phone)
		if err := s.codes.Set(ctx, grant, account.ID.String(), s.resetTTL); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset grant")
		}
	case enums.VerificationMyPage:
		if err := s.directory.UpdatePhone(ctx, account.ID, phone); err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update phone")
		}
		result.Phone = phone
		result.Message = "전화번호가 변경되었습니다."
	case enums.VerificationComplaint:
		result.ComplaintNumber = strings.TrimSpace(req.ComplaintNumber)
	}
	return result, nil
}

// recordFailedAttempt counts a wrong guess and burns the code once the budget
// is spent, so a six digit code cannot be brute forced within its TTL.
func (s *service) recordFailedAttempt(ctx context.Context, key, attemptsKey string) error {
	attempts, err := s.codes.IncrWithTTL(ctx, attemptsKey, s.codeTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count verification attempts")
	}
	if attempts < MaxVerifyAttempts {
		return pkgerrors.New(pkgerrors.CodeValidation, "인증 번호가 일치하지 않거나 만료되었습니다.")
	}
	if err := s.codes.Del(ctx, key, attemptsKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard verification code")
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "kind", string(s.kind)), "verification.code.attempts_exhausted")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "인증 시도 횟수를 초과했습니다. 인증 번호를 다시 요청해주세요.")
}

func (s *service) ConsumeResetGrant(ctx context.Context, accountID uuid.UUID, phone string) (bool, error) {
	phone = types.NormalizePhone(phone)
	if phone == "" || accountID == uuid.Nil {
		return false, nil
	}
	return s.codes.Consume(ctx, s.codes.ResetGrantKey(string(s.kind), phone), accountID.String())
}

func (s *service) checkRequest(rawPhone string, purpose enums.VerificationPurpose, username string) (string, error) {
	phone := types.NormalizePhone(rawPhone)
	if phone == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "전화번호를 입력해주세요.")
	}
	if !purpose.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "지원하지 않는 인증 유형입니다.")
	}
	// The staff app has no complaint codes; citizens look complaints up on the public side.
	if purpose == enums.VerificationComplaint && s.complaints == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "지원하지 않는 인증 유형입니다.")
	}
	if purpose.RequiresUsername() && purpose != enums.VerificationMyPage && strings.TrimSpace(username) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "아이디를 입력해주세요.")
	}
	return phone, nil
}

func (s *service) actorAccount(ctx context.Context, actor *uuid.UUID, username string) (*Account, error) {
	if actor == nil || *actor == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "로그인이 필요합니다.")
	}
	account, err := s.lookup(s.directory.ByID(ctx, *actor))
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(username); name != "" && name != account.Username {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
	}
	return account, nil
}

func (s *service) lookup(account *Account, err error) (*Account, error) {
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "일치하는 사용자 정보가 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}
	return account, nil
}

func (s *service) ensurePhoneFree(ctx context.Context, phone string, exclude uuid.UUID) error {
	taken, err := s.directory.PhoneTaken(ctx, phone, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeValidation, "이미 가입된 전화번호입니다.")
	}
	return nil
}

func (s *service) ensureComplaint(ctx context.Context, number, phone string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "접수번호를 입력해주세요.")
	}
	ok, err := s.complaints.ExistsByNumberAndPhone(ctx, number, phone)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup complaint")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "일치하는 민원 정보가 없습니다.")
	}
	return nil
}
