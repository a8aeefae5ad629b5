package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	slashAuth "github.com/MrEthical07/slashAuth"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	snapshot slashAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() slashAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: slashAuth.MetricsSnapshot{
			Counters:   map[slashAuth.MetricID]uint64{},
			Histograms: map[slashAuth.MetricID][]uint64{},
		},
	})

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 0 {
		t.Fatalf("expected no metrics for disabled source, got %d families", len(families))
	}
}

func TestCollectIncludesCounterAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: slashAuth.MetricsSnapshot{
			Counters: map[slashAuth.MetricID]uint64{
				slashAuth.MetricRequestTokenSuccess: 7,
			},
			Histograms: map[slashAuth.MetricID][]uint64{
				slashAuth.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := scrape(t, c)
	for _, want := range []string{
		"slashauth_request_token_success_total 7",
		`slashauth_request_latency_seconds_bucket{le="0.005"} 1`,
		`slashauth_request_latency_seconds_bucket{le="+Inf"} 36`,
		"slashauth_request_latency_seconds_count 36",
		"slashauth_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestCollectorRegistersCleanly(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: slashAuth.MetricsSnapshot{
		Counters: map[slashAuth.MetricID]uint64{slashAuth.MetricAuthzFailure: 1},
	}})
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
}

func BenchmarkCollect(b *testing.B) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: slashAuth.MetricsSnapshot{
			Counters: map[slashAuth.MetricID]uint64{
				slashAuth.MetricRequestTokenSuccess: 1000,
				slashAuth.MetricAuthzSuccess:        800,
				slashAuth.MetricProtocolError:       10,
			},
			Histograms: map[slashAuth.MetricID][]uint64{
				slashAuth.MetricRequestLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = reg.Gather()
	}
}
