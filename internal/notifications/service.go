// Package notifications stores device tokens and sends preview pushes.
package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/enums"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/push"
)

type TokenRequest struct {
	PushToken string `json:"push_token"`
}

type SendRequest struct {
	Message string `json:"message"`
}

type Result struct {
	Success bool `json:"success"`
}

// Service defines push token and send operations.
type Service interface {
	SaveToken(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID, token string) (*Result, error)
	SendPreview(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID, message string) (*Result, error)
}

type service struct {
	repo   Repository
	sender push.Sender
	logg   *logger.Logger
}

// NewService wires notification dependencies. A nil sender leaves sending
// unconfigured.
func NewService(repo Repository, sender push.Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, sender: sender, logg: logg}, nil
}

func (s *service) SaveToken(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID, token string) (*Result, error) {
	var value *string
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		value = &trimmed
	}
	if err := s.repo.SavePushToken(ctx, kind, accountID, value); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save push token")
	}
	return &Result{Success: true}, nil
}

func (s *service) SendPreview(ctx context.Context, kind enums.AccountKind, accountID uuid.UUID, message string) (*Result, error) {
	token, err := s.repo.PushToken(ctx, kind, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "사용자를 찾을 수 없습니다.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load push token")
	}
	if token == nil || *token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Push token not found")
	}
	if s.sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "push provider not configured")
	}

	err = s.sender.Send(ctx, push.Message{
		Token: *token,
		Body:  message,
		Data:  map[string]string{"type": push.PreviewNotificationType},
	})
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, accountID.String()), "notifications.push.send_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send push notification")
	}
	return &Result{Success: true}, nil
}
