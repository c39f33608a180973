// Package push delivers device notifications through Expo or Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"

	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/enums"
)

// PreviewNotificationType tags notifications sent from the preview screen.
const PreviewNotificationType = "preview_notification"

// Message is a provider-neutral notification.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender is implemented by every provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.PushConfig) (Sender, error) {
	provider, err := enums.ParsePushProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	switch provider {
	case enums.PushProviderFCM:
		return NewFCM(ctx, cfg)
	case enums.PushProviderExpo:
		return NewExpo(cfg)
	}
	return nil, fmt.Errorf("unsupported push provider %q", cfg.Provider)
}
