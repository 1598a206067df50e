package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goOnboard "github.com/MrEthical07/goOnboard"
)

type fakeSource struct {
	snapshot goOnboard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goOnboard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func emptySnapshot() goOnboard.MetricsSnapshot {
	return goOnboard.MetricsSnapshot{
		Counters:   map[goOnboard.MetricID]uint64{},
		Histograms: map[goOnboard.MetricID][]uint64{},
	}
}

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := New(fakeSource{snapshot: emptySnapshot()})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output, got:\n%s", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := New(fakeSource{
		snapshot: goOnboard.MetricsSnapshot{
			Counters: map[goOnboard.MetricID]uint64{
				goOnboard.MetricSignInSuccess: 7,
				goOnboard.MetricKYCSubmitted:  2,
			},
			Histograms: map[goOnboard.MetricID][]uint64{
				goOnboard.MetricBackendLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"onboard_sign_in_success_total 7",
		"onboard_kyc_submitted_total 2",
		"onboard_backend_latency_seconds_bucket{le=\"0.05\"} 1",
		"onboard_backend_latency_seconds_bucket{le=\"+Inf\"} 36",
		"onboard_backend_latency_seconds_count 36",
		"onboard_audit_dropped_total 2",
		"# TYPE onboard_backend_latency_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsMissingHistogram(t *testing.T) {
	snap := emptySnapshot()
	snap.Counters[goOnboard.MetricLogout] = 1
	out := New(fakeSource{snapshot: snap}).Render()

	if strings.Contains(out, "onboard_backend_latency_seconds") {
		t.Fatalf("histogram must be omitted when latency is disabled:\n%s", out)
	}
}

func TestRenderGauges(t *testing.T) {
	exp := New(fakeSource{snapshot: emptySnapshot()}, Gauge{
		Name:  "onboard_accounts_open",
		Help:  "Accounts held in memory.",
		Value: func() uint64 { return 3 },
	})

	out := exp.Render()
	if !strings.Contains(out, "# TYPE onboard_accounts_open gauge\nonboard_accounts_open 3\n") {
		t.Fatalf("expected gauge in output, got:\n%s", out)
	}
}

func TestHandlerContentType(t *testing.T) {
	snap := emptySnapshot()
	snap.Counters[goOnboard.MetricSignInAttempt] = 1
	exp := New(fakeSource{snapshot: snap})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
