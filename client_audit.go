package slashAuth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/slashAuth/internal/wire"
)

const (
	auditEventRequestToken = "request_token"
	auditEventMagiclink    = "magiclink"
	auditEventAuthz        = "authz"
)

// AuditErrorCode is a stable, low-cardinality classification of a failure.
type AuditErrorCode string

const (
	auditErrValidation        AuditErrorCode = "validation"
	auditErrTransport         AuditErrorCode = "transport"
	auditErrProtocol          AuditErrorCode = "protocol"
	auditErrMalformedResponse AuditErrorCode = "malformed_response"
	auditErrSignature         AuditErrorCode = "signature_invalid"
	auditErrNonceMismatch     AuditErrorCode = "nonce_mismatch"
	auditErrCanceled          AuditErrorCode = "canceled"
	auditErrInternal          AuditErrorCode = "internal"
)

type flowMetrics struct {
	event   string
	success MetricID
	failure MetricID
}

var flowMetricTable = map[wire.Method]flowMetrics{
	wire.MethodRequestToken: {event: auditEventRequestToken, success: MetricRequestTokenSuccess, failure: MetricRequestTokenFailure},
	wire.MethodMagiclink:    {event: auditEventMagiclink, success: MetricMagiclinkSuccess, failure: MetricMagiclinkFailure},
	wire.MethodAuthz:        {event: auditEventAuthz, success: MetricAuthzSuccess, failure: MetricAuthzFailure},
}

func classifyError(err error) (AuditErrorCode, MetricID, bool) {
	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation, MetricValidationRejected, true
	case errors.Is(err, ErrProtocol):
		return auditErrProtocol, MetricProtocolError, true
	case errors.Is(err, ErrNonceMismatch):
		return auditErrNonceMismatch, MetricNonceMismatch, true
	case errors.Is(err, ErrSignatureVerification):
		return auditErrSignature, MetricSignatureRejected, true
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformedResponse, MetricMalformedResponse, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled, MetricTransportError, true
	case errors.Is(err, ErrTransport):
		return auditErrTransport, MetricTransportError, true
	default:
		return auditErrInternal, 0, false
	}
}

func (c *Client) observe(ctx context.Context, method wire.Method, callID, target string, elapsed time.Duration, err error) {
	fm := flowMetricTable[method]

	c.metrics.Observe(MetricRequestLatency, elapsed)
	if err == nil {
		c.metrics.Inc(fm.success)
	} else {
		c.metrics.Inc(fm.failure)
	}

	var code AuditErrorCode
	if err != nil {
		var categoryMetric MetricID
		var counted bool
		code, categoryMetric, counted = classifyError(err)
		if counted {
			c.metrics.Inc(categoryMetric)
		}
	}

	if c.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: fm.event,
		CallID:    callID,
		Method:    string(method),
		Target:    target,
		PublicKey: c.publicKeyHex,
		Success:   err == nil,
		Duration:  elapsed,
	}
	if err != nil {
		event.Error = err.Error()
		event.Metadata = map[string]string{"error_code": string(code)}
	}
	c.audit.Emit(ctx, event)
}
