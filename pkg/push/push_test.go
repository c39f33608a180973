package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/messaging"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

func TestExpoSend(t *testing.T) {
	var got expoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer expo-token" {
			t.Errorf("missing access token header")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":{"status":"ok","id":"abc"}}`))
	}))
	defer srv.Close()

	sender, err := NewExpo(config.PushConfig{ExpoEndpoint: srv.URL, ExpoAccessToken: "expo-token"})
	if err != nil {
		t.Fatalf("new expo: %v", err)
	}
	err = sender.Send(context.Background(), Message{
		Token: "ExponentPushToken[xyz]",
		Title: "무물",
		Body:  "미리보기",
		Data:  map[string]string{"type": PreviewNotificationType},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.To != "ExponentPushToken[xyz]" || got.Body != "미리보기" || got.Data["type"] != "preview_notification" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestExpoSendErrorTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"status":"error","message":"DeviceNotRegistered"}}`))
	}))
	defer srv.Close()

	sender, _ := NewExpo(config.PushConfig{ExpoEndpoint: srv.URL})
	err := sender.Send(context.Background(), Message{Token: "t", Body: "b"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if err := sender.Send(context.Background(), Message{Body: "b"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing token, got %v", err)
	}
}

type stubMessaging struct {
	msg *messaging.Message
	err error
}

func (s *stubMessaging) Send(_ context.Context, m *messaging.Message) (string, error) {
	s.msg = m
	return "projects/p/messages/1", s.err
}

func TestFCMSend(t *testing.T) {
	stub := &stubMessaging{}
	sender := &FCM{client: stub}
	if err := sender.Send(context.Background(), Message{Token: "tok", Title: "t", Body: "b", Data: map[string]string{"type": PreviewNotificationType}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if stub.msg.Token != "tok" || stub.msg.Notification.Body != "b" || stub.msg.Data["type"] != PreviewNotificationType {
		t.Fatalf("unexpected message %+v", stub.msg)
	}

	stub.err = errors.New("unavailable")
	if err := sender.Send(context.Background(), Message{Token: "tok"}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), config.PushConfig{Provider: "apns"}); err == nil {
		t.Fatal("expected unknown provider to fail")
	}
}
