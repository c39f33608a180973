// Package slack posts operational notices to an incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

// Notifier is the surface services depend on.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Webhook posts {"text": ...} payloads.
type Webhook struct {
	httpClient *http.Client
	url        string
}

// NewWebhook returns nil when no webhook URL is configured; a nil *Webhook
// silently drops notices.
func NewWebhook(cfg config.SlackConfig) *Webhook {
	url := strings.TrimSpace(cfg.WebhookURL)
	if url == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{httpClient: &http.Client{Timeout: timeout}, url: url}
}

func (w *Webhook) Notify(ctx context.Context, text string) error {
	if w == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build slack request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute slack request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "slack webhook failed")
	}
	return nil
}

// SignupMessage announces a new store owner.
func SignupMessage(username string) string {
	return fmt.Sprintf("새로운 사용자 %s가 가입했습니다!", username)
}

// PublicSignupMessage announces a new public staff account.
func PublicSignupMessage(username string) string {
	return "public - " + SignupMessage(username)
}

// RequestServiceMessage announces a new request-service submission.
func RequestServiceMessage(prefix, username, title string, at time.Time) string {
	if title == "" {
		title = "(제목 없음)"
	}
	return fmt.Sprintf("%s새로운 수정 요청이 등록되었습니다.\n사용자: %s\n제목: %s\n시간: %s",
		prefix, username, title, at.Format("2006-01-02 15:04:05"))
}
