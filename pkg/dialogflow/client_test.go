package dialogflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/leanai/mumul-backend/pkg/config"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

func testConfig() config.DialogflowConfig {
	return config.DialogflowConfig{ProjectID: "mumul", Location: "asia-northeast1", AgentID: "agent-1", LanguageCode: "ko"}
}

func TestDetectIntent(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"queryResult":{"responseMessages":[{"payload":{}},{"text":{"text":["영업시간은 9시부터입니다."]}}]}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	reply, err := client.DetectIntent(context.Background(), "sess-1", "영업시간 알려줘")
	if err != nil {
		t.Fatalf("detect intent: %v", err)
	}
	if reply != "영업시간은 9시부터입니다." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if !strings.HasSuffix(gotPath, "projects/mumul/locations/asia-northeast1/agents/agent-1/sessions/sess-1:detectIntent") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	input, _ := gotBody["queryInput"].(map[string]any)
	if input["languageCode"] != "ko" {
		t.Fatalf("expected ko language, got %v", input["languageCode"])
	}
}

func TestDetectIntentFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.DetectIntent(context.Background(), "", "hi"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := client.DetectIntent(context.Background(), "", "  "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresAgent(t *testing.T) {
	if _, err := NewClient(context.Background(), config.DialogflowConfig{}); err == nil {
		t.Fatal("expected missing settings to fail")
	}
}
