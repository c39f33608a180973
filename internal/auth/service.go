package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/internal/edits"
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/internal/users"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/security"
	"github.com/leanai/mumul-backend/pkg/slack"
	"github.com/leanai/mumul-backend/pkg/types"
)

const dobLayout = "2006-01-02"

var errBadCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "아이디 또는 비밀번호가 잘못되었습니다.")

// resetGrants is satisfied by the verification service.
type resetGrants interface {
	ConsumeResetGrant(ctx context.Context, accountID uuid.UUID, phone string) (bool, error)
}

type tokenIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, kind enums.AccountKind, tenantID *uuid.UUID) (*TokenPair, error)
	Refresh(ctx context.Context, kind enums.AccountKind, req RefreshRequest) (*TokenPair, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service covers the store owner account lifecycle.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	CheckUsername(ctx context.Context, username string) (*CheckUsernameResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	Deactivate(ctx context.Context, userID uuid.UUID, accessID string) error
}

// ServiceParams groups the store owner auth dependencies. ResetGrants is
// required when Flags.RequireResetOTP is on; Slack is optional.
type ServiceParams struct {
	DB          *db.Client
	Tokens      tokenIssuer
	ResetGrants resetGrants
	Uploader    *media.Uploader
	Slack       slack.Notifier
	Password    config.PasswordConfig
	Flags       config.FeatureFlagsConfig
	Logger      *logger.Logger
}

type service struct {
	db       *db.Client
	tokens   tokenIssuer
	grants   resetGrants
	uploader *media.Uploader
	slack    slack.Notifier
	password config.PasswordConfig
	flags    config.FeatureFlagsConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token issuer required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	if params.Flags.RequireResetOTP && params.ResetGrants == nil {
		return nil, fmt.Errorf("reset grants required when reset otp is enforced")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		db:       params.DB,
		tokens:   params.Tokens,
		grants:   params.ResetGrants,
		uploader: params.Uploader,
		slack:    params.Slack,
		password: params.Password,
		flags:    params.Flags,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	username := strings.TrimSpace(req.Username)
	if err := security.CheckUsername(username); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if err := security.CheckPassword(req.Password); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	dob, err := time.Parse(dobLayout, strings.TrimSpace(req.DOB))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "생년월일은 YYYY-MM-DD 형식이어야 합니다.")
	}
	phone := types.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "전화번호를 입력해주세요.")
	}
	hash, err := security.HashPassword(req.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	name := strings.TrimSpace(req.Name)
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Name:         &name,
		DOB:          &dob,
		Phone:        phone,
		Email:        optionalTrimmed(req.Email),
		Marketing:    req.Marketing,
		IsActive:     true,
	}

	var store *models.Store
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		taken, err := repo.UsernameTaken(ctx, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeValidation, "이미 사용 중인 사용자 아이디입니다.")
		}
		if taken, err = repo.PhoneTaken(ctx, phone, uuid.Nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone")
		} else if taken {
			return pkgerrors.New(pkgerrors.CodeValidation, "이미 가입된 전화번호입니다.")
		}
		if err := repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "이미 가입된 사용자입니다.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		store, err = stores.CreateForSignup(ctx, tx, stores.CreateInput{
			OwnerID:  user.ID,
			Name:     req.StoreName,
			Category: optionalTrimmed(req.StoreCategory),
			Address:  optionalTrimmed(req.StoreAddress),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.flags.SlackOnSignup && s.slack != nil {
		if err := s.slack.Notify(ctx, slack.SignupMessage(user.Username)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.signup.slack_failed")
		}
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.signup.completed")

	return &SignupResponse{Success: true, Message: "회원가입 성공", UserID: user.ID, StoreID: store.ID}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := users.NewRepository(s.db.DB()).FindActiveByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, errBadCredentials
	}

	store, err := stores.NewRepository(s.db.DB()).PrimaryForOwner(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "등록되지 않은 회원입니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	pair, err := s.tokens.Issue(ctx, user.ID, enums.AccountKindStoreOwner, &store.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Access: pair.Access, Refresh: pair.Refresh, StoreID: store.ID, UserID: user.ID}, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	return s.tokens.Refresh(ctx, enums.AccountKindStoreOwner, req)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	return s.tokens.Revoke(ctx, accessID)
}

func (s *service) CheckUsername(ctx context.Context, username string) (*CheckUsernameResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "아이디를 입력해주세요.")
	}
	_, err := users.NewRepository(s.db.DB()).FindActiveByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "이미 사용 중인 사용자 아이디입니다.").
			WithDetails(map[string]any{"is_duplicate": true})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &CheckUsernameResponse{IsDuplicate: false, Message: "사용 가능한 사용자 아이디입니다."}, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	phone := types.NormalizePhone(req.Phone)
	if phone == "" || req.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "전화번호와 새 비밀번호를 입력해주세요.")
	}
	if err := security.CheckPassword(req.NewPassword); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	repo := users.NewRepository(s.db.DB())
	user, err := repo.FindActiveByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "해당 전화번호로 등록된 사용자가 없습니다.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if s.flags.RequireResetOTP {
		granted, err := s.grants.ConsumeResetGrant(ctx, user.ID, phone)
		if err != nil {
			return err
		}
		if !granted {
			return pkgerrors.New(pkgerrors.CodeForbidden, "휴대폰 인증 후 비밀번호를 변경할 수 있습니다.")
		}
	}

	hash, err := security.HashPassword(req.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password.reset")
	return nil
}

// Deactivate anonymizes the owner, their stores, menus and edits in one
// transaction, then drops their files and session. File cleanup failures are
// logged, the account stays deactivated.
func (s *service) Deactivate(ctx context.Context, userID uuid.UUID, accessID string) error {
	var owned []models.Store
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := repo.FindByID(ctx, userID)
		if err != nil || !user.IsActive {
			if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		if owned, err = stores.NewRepository(tx).AnonymizeByOwner(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "anonymize stores")
		}
		menuRepo := menus.NewRepository(tx)
		for _, store := range owned {
			if err := menuRepo.AnonymizeByStore(ctx, store.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "anonymize menus")
			}
			if err := menus.RecomputeMenuPrice(ctx, tx, store.ID); err != nil {
				return err
			}
		}
		if err := edits.NewRepository(tx).AnonymizeByUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "anonymize edits")
		}
		if err := repo.Anonymize(ctx, userID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "anonymize user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	prefixes := []string{users.PhotoPrefix(userID), media.StatisticsPrefix(userID)}
	var keys []string
	for _, store := range owned {
		prefixes = append(prefixes,
			media.StoreUploadsPrefix(store.ID),
			media.MenuImagePrefix(store.ID),
			media.BannerPrefix(store.ID),
		)
		keys = append(keys, media.StoreQRKey(store.ID))
	}
	if err := s.uploader.Purge(ctx, prefixes, keys); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "auth.deactivate.storage_cleanup_failed", err)
	}
	if err := s.tokens.Revoke(ctx, accessID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.deactivate.revoke_failed")
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "auth.deactivate.completed")
	return nil
}

func optionalTrimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
