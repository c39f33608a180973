package push

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

const (
	defaultExpoEndpoint         = "https://exp.host/--/api/v2/push/send"
	responseBodyReadLimit int64 = 2048
)

// Expo sends notifications through the Expo push API.
type Expo struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
}

// ExpoOption configures optional client behavior.
type ExpoOption func(*Expo)

// WithExpoHTTPClient overrides the default HTTP client.
func WithExpoHTTPClient(client *http.Client) ExpoOption {
	return func(e *Expo) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// NewExpo builds an Expo sender from config.
func NewExpo(cfg config.PushConfig, opts ...ExpoOption) (*Expo, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	e := &Expo{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    defaultExpoEndpoint,
		accessToken: strings.TrimSpace(cfg.ExpoAccessToken),
	}
	if cfg.ExpoEndpoint != "" {
		e.endpoint = cfg.ExpoEndpoint
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// Send posts one message; an error ticket in the response counts as failure.
func (e *Expo) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "push token is required")
	}

	payload, err := json.Marshal(expoMessage{
		To:    msg.Token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
		Sound: "default",
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal expo message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build expo request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.accessToken)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute expo request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "expo push failed")
	}

	var ticket struct {
		Data struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &ticket); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode expo response")
	}
	if ticket.Data.Status == "error" {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%s", ticket.Data.Message), "expo rejected push")
	}
	return nil
}
