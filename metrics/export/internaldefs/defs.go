package internaldefs

import (
	slashAuth "github.com/MrEthical07/slashAuth"
)

// CounterDef names one client counter.
type CounterDef struct {
	ID   slashAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one client histogram.
type HistogramDef struct {
	ID   slashAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "slashauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: slashAuth.MetricRequestTokenSuccess, Name: "slashauth_request_token_success_total", Help: "Validated requestToken calls."},
	{ID: slashAuth.MetricRequestTokenFailure, Name: "slashauth_request_token_failure_total", Help: "Failed requestToken calls."},
	{ID: slashAuth.MetricMagiclinkSuccess, Name: "slashauth_magiclink_success_total", Help: "Validated magiclink calls."},
	{ID: slashAuth.MetricMagiclinkFailure, Name: "slashauth_magiclink_failure_total", Help: "Failed magiclink calls."},
	{ID: slashAuth.MetricAuthzSuccess, Name: "slashauth_authz_success_total", Help: "Validated authz calls."},
	{ID: slashAuth.MetricAuthzFailure, Name: "slashauth_authz_failure_total", Help: "Failed authz calls."},
	{ID: slashAuth.MetricValidationRejected, Name: "slashauth_validation_rejected_total", Help: "Calls rejected before any I/O."},
	{ID: slashAuth.MetricTransportError, Name: "slashauth_transport_error_total", Help: "Calls failed by the transport."},
	{ID: slashAuth.MetricProtocolError, Name: "slashauth_protocol_error_total", Help: "Server error envelopes received."},
	{ID: slashAuth.MetricMalformedResponse, Name: "slashauth_malformed_response_total", Help: "Structurally invalid success envelopes."},
	{ID: slashAuth.MetricSignatureRejected, Name: "slashauth_signature_rejected_total", Help: "Responses with an invalid server signature."},
	{ID: slashAuth.MetricNonceMismatch, Name: "slashauth_nonce_mismatch_total", Help: "Responses that did not echo the request nonce."},
}

var HistogramDefs = []HistogramDef{
	{ID: slashAuth.MetricRequestLatency, Name: "slashauth_request_latency_seconds", Help: "Protocol call latency histogram."},
}

// HistogramBounds are slashAuth.LatencyBounds in seconds. The last client
// bucket is +Inf.
var HistogramBounds = boundsSeconds()

func boundsSeconds() []float64 {
	out := make([]float64, len(slashAuth.LatencyBounds))
	for i, b := range slashAuth.LatencyBounds {
		out[i] = b.Seconds()
	}
	return out
}

// HistogramBoundSuffix names every bucket, +Inf included, for exporters that
// encode the bound in the instrument name.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// BucketCount is the number of client latency buckets, +Inf included.
const BucketCount = len(slashAuth.LatencyBounds) + 1

// NormalizeBuckets pads or truncates raw to BucketCount buckets.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
