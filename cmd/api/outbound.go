package main

import (
	"context"

	"github.com/leanai/mumul-backend/pkg/aligo"
	"github.com/leanai/mumul-backend/pkg/dialogflow"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/metrics"
	"github.com/leanai/mumul-backend/pkg/push"
	"github.com/leanai/mumul-backend/pkg/slack"
)

const (
	targetSMS        = "aligo"
	targetPush       = "push"
	targetSlack      = "slack"
	targetDialogflow = "dialogflow"
)

type meteredSMS struct {
	next    aligo.Sender
	metrics *metrics.OutboundMetrics
}

func (m meteredSMS) Send(ctx context.Context, receiver, message string) error {
	err := m.next.Send(ctx, receiver, message)
	m.metrics.Record(targetSMS, err)
	return err
}

type meteredPush struct {
	next    push.Sender
	metrics *metrics.OutboundMetrics
}

func (m meteredPush) Send(ctx context.Context, msg push.Message) error {
	err := m.next.Send(ctx, msg)
	m.metrics.Record(targetPush, err)
	return err
}

type meteredSlack struct {
	next    slack.Notifier
	metrics *metrics.OutboundMetrics
}

func (m meteredSlack) Notify(ctx context.Context, text string) error {
	err := m.next.Notify(ctx, text)
	m.metrics.Record(targetSlack, err)
	return err
}

type meteredDetector struct {
	next    dialogflow.Detector
	metrics *metrics.OutboundMetrics
}

func (m meteredDetector) DetectIntent(ctx context.Context, sessionID, text string) (string, error) {
	reply, err := m.next.DetectIntent(ctx, sessionID, text)
	m.metrics.Record(targetDialogflow, err)
	return reply, err
}

// devSMS stands in for Aligo on dev machines without gateway credentials.
// Messages land in the log instead of a phone.
type devSMS struct {
	logg *logger.Logger
}

func (d devSMS) Send(ctx context.Context, receiver, message string) error {
	ctx = d.logg.WithFields(ctx, map[string]any{
		"receiver": receiver,
		"message":  message,
	})
	d.logg.Warn(ctx, "sms gateway not configured; message logged only")
	return nil
}
