package chatbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leanai/mumul-backend/pkg/db/dbtest"
	"github.com/leanai/mumul-backend/pkg/db/models"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

type stubDetector struct {
	reply   string
	err     error
	session string
}

func (s *stubDetector) DetectIntent(_ context.Context, sessionID, text string) (string, error) {
	s.session = sessionID
	return s.reply, s.err
}

func TestReply(t *testing.T) {
	client := dbtest.Open(t)
	detector := &stubDetector{reply: "영업시간은 9시부터입니다."}
	svc, err := NewService(ServiceParams{DB: client, Detector: detector})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := svc.Reply(ctx, Request{Message: " 영업시간? ", SessionID: "s-1", AgentID: "agent-1"})
	require.NoError(t, err)
	require.Equal(t, "영업시간은 9시부터입니다.", res.Response)
	require.Equal(t, "s-1", detector.session)

	_, err = svc.Reply(ctx, Request{Message: "주차", AgentID: "agent-1"})
	require.NoError(t, err)

	var logs []models.QuestionLog
	require.NoError(t, client.DB().Where("agent_id = ?", "agent-1").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.JSONEq(t, `[{"question":"영업시간?"},{"question":"주차"}]`, logs[0].Questions)

	_, err = svc.Reply(ctx, Request{Message: "   "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReplyErrors(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()

	svc, err := NewService(ServiceParams{DB: client, Detector: &stubDetector{err: errors.New("boom")}})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, Request{Message: "hi"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	unconfigured, err := NewService(ServiceParams{DB: client})
	require.NoError(t, err)
	_, err = unconfigured.Reply(ctx, Request{Message: "hi"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured))
}

func TestReplyAppendsToExistingLog(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, client.DB().Create(&models.QuestionLog{AgentID: "agent-2", Questions: `[{"question":"메뉴"}]`}).Error)

	svc, err := NewService(ServiceParams{DB: client, Detector: &stubDetector{reply: "네"}})
	require.NoError(t, err)
	for _, msg := range []string{"가격", "위치"} {
		_, err := svc.Reply(ctx, Request{Message: msg, AgentID: "agent-2"})
		require.NoError(t, err)
	}

	var logs []models.QuestionLog
	require.NoError(t, client.DB().Where("agent_id = ?", "agent-2").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.JSONEq(t, `[{"question":"메뉴"},{"question":"가격"},{"question":"위치"}]`, logs[0].Questions)

	// One row per agent is enforced by the schema.
	err = client.DB().Create(&models.QuestionLog{AgentID: "agent-2", Questions: "[]"}).Error
	require.Error(t, err)
}
