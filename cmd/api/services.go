package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leanai/mumul-backend/api/routes"
	"github.com/leanai/mumul-backend/internal/auth"
	"github.com/leanai/mumul-backend/internal/chatbot"
	"github.com/leanai/mumul-backend/internal/complaints"
	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/internal/edits"
	"github.com/leanai/mumul-backend/internal/feeds"
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/internal/notifications"
	"github.com/leanai/mumul-backend/internal/publicauth"
	"github.com/leanai/mumul-backend/internal/publics"
	"github.com/leanai/mumul-backend/internal/publicusers"
	"github.com/leanai/mumul-backend/internal/qrcodes"
	"github.com/leanai/mumul-backend/internal/statistics"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/internal/users"
	"github.com/leanai/mumul-backend/internal/verification"
	"github.com/leanai/mumul-backend/pkg/aligo"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/dialogflow"
	"github.com/leanai/mumul-backend/pkg/enums"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/metrics"
	"github.com/leanai/mumul-backend/pkg/push"
	"github.com/leanai/mumul-backend/pkg/redis"
	"github.com/leanai/mumul-backend/pkg/slack"
	"github.com/leanai/mumul-backend/pkg/storage"
)

// gateways holds the optional outbound integrations. A nil field means the
// integration is not configured.
type gateways struct {
	sms      aligo.Sender
	push     push.Sender
	slack    slack.Notifier
	detector dialogflow.Detector
}

func buildGateways(ctx context.Context, cfg *config.Config, logg *logger.Logger, outbound *metrics.OutboundMetrics) (gateways, error) {
	var gw gateways

	smsClient, err := aligo.NewClient(cfg.Aligo)
	switch {
	case err == nil:
		gw.sms = meteredSMS{next: smsClient, metrics: outbound}
	case cfg.App.IsDev():
		logg.Warn(ctx, "aligo not configured; using log-only sms sender")
		gw.sms = devSMS{logg: logg}
	default:
		return gw, fmt.Errorf("aligo: %w", err)
	}

	if cfg.Push.Provider != "" {
		sender, err := push.New(ctx, cfg.Push)
		if err != nil {
			logg.Warn(ctx, "push provider unavailable; push delivery disabled")
		} else {
			gw.push = meteredPush{next: sender, metrics: outbound}
		}
	}

	if hook := slack.NewWebhook(cfg.Slack); hook != nil {
		gw.slack = meteredSlack{next: hook, metrics: outbound}
	}

	if cfg.Dialogflow.Enabled() {
		client, err := dialogflow.NewClient(ctx, cfg.Dialogflow)
		if err != nil {
			logg.Warn(ctx, "dialogflow unavailable; chatbot disabled")
		} else {
			gw.detector = meteredDetector{next: client, metrics: outbound}
		}
	}
	return gw, nil
}

type serviceDeps struct {
	cfg      *config.Config
	logg     *logger.Logger
	db       *db.Client
	redis    *redis.Client
	tokens   *auth.Issuer
	store    storage.Store
	gateways gateways
	loc      *time.Location
}

// buildServices constructs every domain service and returns them in the
// shape the router expects.
func buildServices(d serviceDeps) (routes.Deps, error) {
	var out routes.Deps
	gdb := d.db.DB()

	uploader, err := media.NewUploader(d.store)
	if err != nil {
		return out, fmt.Errorf("media uploader: %w", err)
	}

	complaintRepo := complaints.NewRepository(gdb)

	ownerCodes, err := verification.NewService(verification.ServiceParams{
		Kind:       enums.AccountKindStoreOwner,
		Directory:  verification.StoreOwners(users.NewRepository(gdb)),
		Complaints: complaintRepo,
		Codes:      d.redis,
		SMS:        d.gateways.sms,
		Logger:     d.logg,
		Location:   d.loc,
	})
	if err != nil {
		return out, fmt.Errorf("store owner verification: %w", err)
	}
	staffCodes, err := verification.NewService(verification.ServiceParams{
		Kind:       enums.AccountKindPublicStaff,
		Directory:  verification.PublicStaff(publicusers.NewRepository(gdb)),
		Complaints: complaintRepo,
		Codes:      d.redis,
		SMS:        d.gateways.sms,
		Logger:     d.logg,
		Location:   d.loc,
	})
	if err != nil {
		return out, fmt.Errorf("public staff verification: %w", err)
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		DB:          d.db,
		Tokens:      d.tokens,
		ResetGrants: ownerCodes,
		Uploader:    uploader,
		Slack:       d.gateways.slack,
		Password:    d.cfg.Password,
		Flags:       d.cfg.FeatureFlags,
		Logger:      d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("auth service: %w", err)
	}
	publicAuthSvc, err := publicauth.NewService(publicauth.ServiceParams{
		DB:          d.db,
		Tokens:      d.tokens,
		ResetGrants: staffCodes,
		Uploader:    uploader,
		Slack:       d.gateways.slack,
		Password:    d.cfg.Password,
		Flags:       d.cfg.FeatureFlags,
		Logger:      d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("public auth service: %w", err)
	}

	storeSvc, err := stores.NewService(stores.ServiceParams{DB: d.db, Uploader: uploader, Logger: d.logg})
	if err != nil {
		return out, fmt.Errorf("stores service: %w", err)
	}
	userSvc, err := users.NewService(users.ServiceParams{
		Users:    users.NewRepository(gdb),
		Stores:   storeSvc,
		Uploader: uploader,
		Logger:   d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("users service: %w", err)
	}
	menuSvc, err := menus.NewService(menus.ServiceParams{DB: d.db, Uploader: uploader, Logger: d.logg})
	if err != nil {
		return out, fmt.Errorf("menus service: %w", err)
	}
	feedSvc, err := feeds.NewService(feeds.ServiceParams{DB: d.db, Uploader: uploader, Logger: d.logg})
	if err != nil {
		return out, fmt.Errorf("feeds service: %w", err)
	}
	editSvc, err := edits.NewService(edits.ServiceParams{
		DB:          d.db,
		Uploader:    uploader,
		Menus:       menuSvc,
		ImportMenus: d.cfg.FeatureFlags.ExcelMenuImports,
		Slack:       d.gateways.slack,
		Logger:      d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("edits service: %w", err)
	}
	departmentSvc, err := departments.NewService(departments.ServiceParams{DB: d.db, Logger: d.logg})
	if err != nil {
		return out, fmt.Errorf("departments service: %w", err)
	}
	publicUserSvc, err := publicusers.NewService(publicusers.ServiceParams{
		DB:          d.db,
		Departments: departmentSvc,
		Uploader:    uploader,
		Logger:      d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("public users service: %w", err)
	}
	publicSvc, err := publics.NewService(publics.ServiceParams{DB: d.db, Uploader: uploader, Logger: d.logg})
	if err != nil {
		return out, fmt.Errorf("publics service: %w", err)
	}
	qrSvc, err := qrcodes.NewService(qrcodes.ServiceParams{
		DB:       d.db,
		Uploader: uploader,
		Config:   d.cfg.QR,
		Logger:   d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("qr service: %w", err)
	}
	conversations, err := storage.NewLocal(d.cfg.Statistics.ConversationRoot, "")
	if err != nil {
		return out, fmt.Errorf("conversation store: %w", err)
	}
	statisticsSvc, err := statistics.NewService(statistics.ServiceParams{
		DB:            d.db,
		Conversations: conversations,
		Uploader:      uploader,
		Config:        d.cfg.Statistics,
		Location:      d.loc,
		Logger:        d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("statistics service: %w", err)
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(gdb), d.gateways.push, d.logg)
	if err != nil {
		return out, fmt.Errorf("notifications service: %w", err)
	}
	complaintSvc, err := complaints.NewService(complaints.ServiceParams{
		DB:       d.db,
		SMS:      d.gateways.sms,
		SendSMS:  d.cfg.FeatureFlags.ComplaintSMS,
		Location: d.loc,
		Logger:   d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("complaints service: %w", err)
	}
	chatbotSvc, err := chatbot.NewService(chatbot.ServiceParams{
		DB:       d.db,
		Detector: d.gateways.detector,
		Logger:   d.logg,
	})
	if err != nil {
		return out, fmt.Errorf("chatbot service: %w", err)
	}

	out = routes.Deps{
		Auth:               authSvc,
		PublicAuth:         publicAuthSvc,
		Verification:       ownerCodes,
		PublicVerification: staffCodes,
		Users:              userSvc,
		PublicUsers:        publicUserSvc,
		Stores:             storeSvc,
		Menus:              menuSvc,
		Feeds:              feedSvc,
		QRCodes:            qrSvc,
		Statistics:         statisticsSvc,
		Edits:              editSvc,
		Notifications:      notificationSvc,
		Publics:            publicSvc,
		Departments:        departmentSvc,
		Complaints:         complaintSvc,
		Chatbot:            chatbotSvc,
	}
	return out, nil
}
