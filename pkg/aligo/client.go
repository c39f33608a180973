// Package aligo sends SMS through the Aligo gateway.
package aligo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

const (
	defaultEndpoint             = "https://apis.aligo.in/send/"
	responseBodyReadLimit int64 = 2048
	successResultCode           = "1"
)

var errCredentialsRequired = errors.New("aligo api key, user id and sender are required")

// Sender is the SMS surface used by services.
type Sender interface {
	Send(ctx context.Context, receiver, message string) error
}

// Client posts form-encoded messages to Aligo.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	userID     string
	sender     string
	testMode   bool
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint overrides the send endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// NewClient builds the client from config.
func NewClient(cfg config.AligoConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.UserID) == "" || strings.TrimSpace(cfg.Sender) == "" {
		return nil, errCredentialsRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   defaultEndpoint,
		apiKey:     cfg.APIKey,
		userID:     cfg.UserID,
		sender:     cfg.Sender,
		testMode:   cfg.TestMode,
	}
	if cfg.Endpoint != "" {
		client.endpoint = cfg.Endpoint
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Send delivers one SMS. Any transport failure, non-200 status or result code
// other than "1" is reported as a dependency error.
func (c *Client) Send(ctx context.Context, receiver, message string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeNotConfigured, "aligo client not configured")
	}
	if strings.TrimSpace(receiver) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receiver is required")
	}

	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("user_id", c.userID)
	form.Set("sender", c.sender)
	form.Set("receiver", receiver)
	form.Set("msg", message)
	if c.testMode {
		form.Set("testmode_yn", "Y")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sms request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "sms request failed")
	}

	var apiResp struct {
		ResultCode json.RawMessage `json:"result_code"`
		Message    string          `json:"message"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sms response")
	}
	if code := strings.Trim(string(apiResp.ResultCode), `"`); code != successResultCode {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("result_code %s: %s", code, apiResp.Message), "sms rejected by gateway")
	}
	return nil
}

// VerificationMessage is the OTP text sent to users.
func VerificationMessage(code string) string {
	return fmt.Sprintf("인증 번호는 [%s]입니다.", code)
}

// ComplaintReceiptMessage tells a complainant their tracking number.
func ComplaintReceiptMessage(number string) string {
	return fmt.Sprintf("안녕하세요, 접수하신 민원의 접수번호는 [%s]입니다.", number)
}

// ComplaintAnsweredMessage tells a complainant an answer was posted.
func ComplaintAnsweredMessage(number string) string {
	return fmt.Sprintf("접수하신 민원 [%s]에 답변이 등록되었습니다.", number)
}
