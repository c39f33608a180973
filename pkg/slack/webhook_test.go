package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

func TestWebhookNotify(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook := NewWebhook(config.SlackConfig{WebhookURL: srv.URL})
	if err := hook.Notify(context.Background(), SignupMessage("store01")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got["text"] != "새로운 사용자 store01가 가입했습니다!" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestWebhookFailureAndNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	hook := NewWebhook(config.SlackConfig{WebhookURL: srv.URL})
	if err := hook.Notify(context.Background(), "x"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	var disabled *Webhook = NewWebhook(config.SlackConfig{})
	if disabled != nil {
		t.Fatal("expected nil webhook without url")
	}
	if err := disabled.Notify(context.Background(), "x"); err != nil {
		t.Fatalf("nil webhook should drop silently, got %v", err)
	}
}

func TestMessages(t *testing.T) {
	if got := PublicSignupMessage("staff1"); got != "public - 새로운 사용자 staff1가 가입했습니다!" {
		t.Fatalf("unexpected public signup message %q", got)
	}
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	msg := RequestServiceMessage("", "store01", "", at)
	if !strings.Contains(msg, "store01") || !strings.Contains(msg, "2025-03-01 09:30:00") || !strings.Contains(msg, "(제목 없음)") {
		t.Fatalf("unexpected request message %q", msg)
	}
}
