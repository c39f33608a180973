package push

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM sends notifications through Firebase Cloud Messaging.
type FCM struct {
	client messagingClient
}

// NewFCM initializes a Firebase app from the configured service account.
func NewFCM(ctx context.Context, cfg config.PushConfig) (*FCM, error) {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.FCMCredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FCMCredentialsJSON)))
	case strings.TrimSpace(cfg.FCMCredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.FCMCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase messaging: %w", err)
	}
	return &FCM{client: client}, nil
}

func (f *FCM) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "push token is required")
	}
	message := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: msg.Title, Body: msg.Body},
					Sound: "default",
				},
			},
		},
	}
	if _, err := f.client.Send(ctx, message); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fcm push failed")
	}
	return nil
}
