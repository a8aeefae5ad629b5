package slashAuth

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID identifies a client counter or histogram.
type MetricID uint16

const (
	// MetricRequestTokenSuccess counts validated requestToken calls.
	MetricRequestTokenSuccess MetricID = iota
	// MetricRequestTokenFailure counts failed requestToken calls.
	MetricRequestTokenFailure
	// MetricMagiclinkSuccess counts validated magiclink calls.
	MetricMagiclinkSuccess
	// MetricMagiclinkFailure counts failed magiclink calls.
	MetricMagiclinkFailure
	// MetricAuthzSuccess counts validated authz calls.
	MetricAuthzSuccess
	// MetricAuthzFailure counts failed authz calls.
	MetricAuthzFailure
	// MetricValidationRejected counts calls rejected before any I/O.
	MetricValidationRejected
	// MetricTransportError counts failures reported by the transport.
	MetricTransportError
	// MetricProtocolError counts server error envelopes.
	MetricProtocolError
	// MetricMalformedResponse counts structurally invalid success envelopes.
	MetricMalformedResponse
	// MetricSignatureRejected counts responses with an invalid server signature.
	MetricSignatureRejected
	// MetricNonceMismatch counts responses that did not echo the request nonce.
	MetricNonceMismatch
	// MetricRequestLatency is the round-trip latency histogram.
	MetricRequestLatency
	metricIDCount
)

// LatencyBounds are the inclusive upper bounds of the latency histogram.
// Observations above the last bound land in a final overflow bucket.
var LatencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const latencyBucketCount = len(LatencyBounds) + 1

// counterCell sits on its own cache line so hot counters don't share one.
type counterCell struct {
	n atomic.Uint64
	_ [56]byte
}

type latencyHistogram struct {
	buckets [latencyBucketCount]atomic.Uint64
	sumNs   atomic.Int64
}

// Metrics is a lock-free counter set. A nil *Metrics is a valid no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]counterCell
	latency       latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
// LatencySum is the total of every latency observation.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	LatencySum time.Duration
}

// NewMetrics allocates a counter set for cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id. The latency id is not a counter.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= MetricRequestLatency {
		return
	}
	m.counters[id].n.Add(1)
}

// Observe records d in the latency histogram. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricRequestLatency {
		return
	}
	if d < 0 {
		d = 0
	}
	m.latency.buckets[latencyBucket(d)].Add(1)
	m.latency.sumNs.Add(int64(d))
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricRequestLatency {
		return 0
	}
	return m.counters[id].n.Load()
}

// Snapshot copies all counters, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < MetricRequestLatency; id++ {
		s.Counters[id] = m.counters[id].n.Load()
	}
	if m.enableLatency {
		buckets := make([]uint64, latencyBucketCount)
		for i := range buckets {
			buckets[i] = m.latency.buckets[i].Load()
		}
		s.Histograms[MetricRequestLatency] = buckets
		s.LatencySum = time.Duration(m.latency.sumNs.Load())
	}
	return s
}

func latencyBucket(d time.Duration) int {
	return sort.Search(len(LatencyBounds), func(i int) bool {
		return d <= LatencyBounds[i]
	})
}
