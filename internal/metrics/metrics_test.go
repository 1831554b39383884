package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

func TestObserveCallCountsByOutcome(t *testing.T) {
	m := New()
	m.ObserveCall(apiclient.CallInfo{Operation: "contacts.list", Method: "GET", Status: 200, Duration: 20 * time.Millisecond, Outcome: apiclient.OutcomeOK})
	m.ObserveCall(apiclient.CallInfo{Operation: "contacts.list", Method: "GET", Status: 200, Duration: 10 * time.Millisecond, Outcome: apiclient.OutcomeOK})
	m.ObserveCall(apiclient.CallInfo{Operation: "contacts.list", Method: "GET", Outcome: apiclient.OutcomeNetworkError})

	if got := testutil.ToFloat64(m.apiCalls.WithLabelValues("contacts.list", "GET", "200", "ok")); got != 2 {
		t.Fatalf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.apiCalls.WithLabelValues("contacts.list", "GET", "none", "network_error")); got != 1 {
		t.Fatalf("network calls = %v, want 1", got)
	}
}

func TestRelayCounters(t *testing.T) {
	m := New()
	m.Snapshot("dashboard.metrics", "published")
	m.Snapshot("dashboard.metrics", "unchanged")
	m.Snapshot("dashboard.metrics", "unchanged")
	m.Delivery("dashboard.metrics", 2, 1)

	if got := testutil.ToFloat64(m.snapshots.WithLabelValues("dashboard.metrics", "unchanged")); got != 2 {
		t.Fatalf("unchanged = %v", got)
	}
	if got := testutil.ToFloat64(m.publishes.WithLabelValues("dashboard.metrics", "false")); got != 1 {
		t.Fatalf("failed deliveries = %v", got)
	}
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	m := New()
	m.ObserveCall(apiclient.CallInfo{Operation: "auth.check", Method: "GET", Status: 401, Outcome: apiclient.OutcomeHTTPError})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `bizdesk_api_calls_total{method="GET",operation="auth.check",outcome="http_error",status="401"} 1`) {
		t.Fatalf("metrics output missing api counter:\n%s", body)
	}
}
