package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/stores/{storeID}", 200, 10*time.Millisecond)
	m.Observe("GET", "/api/v1/stores/{storeID}", 200, 20*time.Millisecond)
	m.Observe("POST", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "mumul_http_requests_total", "route", "/api/v1/stores/{storeID}"); err != nil || got != 2 {
		t.Fatalf("expected 2 store requests, got %v (err=%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "mumul_http_requests_total", "route", "unmatched"); err != nil || got != 1 {
		t.Fatalf("expected unmatched route counted, got %v (err=%v)", got, err)
	}
}

func TestOutboundMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboundMetrics(reg)
	m.Record("aligo", nil)
	m.Record("aligo", errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "mumul_outbound_calls_total", "outcome", "error"); err != nil || got != 1 {
		t.Fatalf("expected one failed call, got %v (err=%v)", got, err)
	}

	var nilMetrics *OutboundMetrics
	nilMetrics.Record("slack", nil)
}
