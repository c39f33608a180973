// Package chatbot relays visitor questions to the Dialogflow agent and keeps
// the per-agent question log read by the statistics merge.
package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/dialogflow"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
}

type Response struct {
	Response string `json:"response"`
}

type Service interface {
	Reply(ctx context.Context, req Request) (*Response, error)
}

type ServiceParams struct {
	DB       *db.Client
	Detector dialogflow.Detector
	Logger   *logger.Logger
}

type service struct {
	db       *db.Client
	detector dialogflow.Detector
	logg     *logger.Logger
}

// NewService wires the chatbot. A nil detector answers every call with a
// not-configured error.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{db: params.DB, detector: params.Detector, logg: logg}, nil
}

func (s *service) Reply(ctx context.Context, req Request) (*Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "메시지를 입력해주세요.")
	}
	if s.detector == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "chatbot is not configured")
	}

	reply, err := s.detector.DetectIntent(ctx, req.SessionID, message)
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dialogflow detect intent failed")
		}
		s.logg.Error(s.logg.WithField(ctx, "session_id", req.SessionID), "chatbot.detect_intent_failed", err)
		return nil, err
	}

	if agentID := strings.TrimSpace(req.AgentID); agentID != "" {
		if err := s.logQuestion(ctx, agentID, message); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"agent_id": agentID, "error": err.Error()}), "chatbot.question_log_failed")
		}
	}
	return &Response{Response: reply}, nil
}

type questionEntry struct {
	Question string `json:"question"`
}

// logQuestion appends message to the question log of agentID, creating it on
// first use. The row is created with ON CONFLICT DO NOTHING and then locked, so
// concurrent chats for one agent serialize on a single row.
func (s *service) logQuestion(ctx context.Context, agentID, message string) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		seed := models.QuestionLog{AgentID: agentID, Questions: "[]"}
		if err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "agent_id"}}, DoNothing: true}).
			Create(&seed).Error; err != nil {
			return err
		}

		var row models.QuestionLog
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("agent_id = ?", agentID).
			Take(&row).Error; err != nil {
			return err
		}

		var entries []json.RawMessage
		if strings.TrimSpace(row.Questions) != "" {
			if err := json.Unmarshal([]byte(row.Questions), &entries); err != nil {
				return fmt.Errorf("decode question log %d: %w", row.ID, err)
			}
		}
		next, err := json.Marshal(questionEntry{Question: message})
		if err != nil {
			return err
		}
		raw, err := json.Marshal(append(entries, next))
		if err != nil {
			return err
		}
		return tx.WithContext(ctx).Model(&models.QuestionLog{}).Where("id = ?", row.ID).Update("questions", string(raw)).Error
	})
}
