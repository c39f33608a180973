// Package dialogflow calls Dialogflow CX detectIntent for the chatbot endpoint.
package dialogflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	df "google.golang.org/api/dialogflow/v3"
	"google.golang.org/api/option"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

// Detector returns the agent reply for one user utterance.
type Detector interface {
	DetectIntent(ctx context.Context, sessionID, text string) (string, error)
}

// Client is bound to a single CX agent.
type Client struct {
	sessions *df.ProjectsLocationsAgentsSessionsService
	agent    string
	language string
}

// NewClient builds a regional client. Extra options are appended after the
// ones derived from config, so tests can point the client at a fake server.
func NewClient(ctx context.Context, cfg config.DialogflowConfig, extra ...option.ClientOption) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("dialogflow project and agent are required")
	}

	opts := []option.ClientOption{option.WithEndpoint(cfg.Endpoint())}
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, extra...)

	svc, err := df.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating dialogflow service: %w", err)
	}

	language := cfg.LanguageCode
	if language == "" {
		language = "ko"
	}
	location := cfg.Location
	if location == "" {
		location = "global"
	}

	return &Client{
		sessions: svc.Projects.Locations.Agents.Sessions,
		agent:    fmt.Sprintf("projects/%s/locations/%s/agents/%s", cfg.ProjectID, location, cfg.AgentID),
		language: language,
	}, nil
}

// SessionPath returns the full resource name for a session id.
func (c *Client) SessionPath(sessionID string) string {
	return c.agent + "/sessions/" + sessionID
}

// DetectIntent sends text and returns the first text reply. A blank sessionID
// starts a fresh session.
func (c *Client) DetectIntent(ctx context.Context, sessionID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	resp, err := c.sessions.DetectIntent(c.SessionPath(sessionID), &df.GoogleCloudDialogflowCxV3DetectIntentRequest{
		QueryInput: &df.GoogleCloudDialogflowCxV3QueryInput{
			Text:         &df.GoogleCloudDialogflowCxV3TextInput{Text: text},
			LanguageCode: c.language,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dialogflow detect intent failed")
	}

	return FirstText(resp), nil
}

// FirstText extracts the first text of the first response message that has one.
func FirstText(resp *df.GoogleCloudDialogflowCxV3DetectIntentResponse) string {
	if resp == nil || resp.QueryResult == nil {
		return ""
	}
	for _, msg := range resp.QueryResult.ResponseMessages {
		if msg == nil || msg.Text == nil {
			continue
		}
		for _, t := range msg.Text.Text {
			if t != "" {
				return t
			}
		}
	}
	return ""
}
