package otel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	slashAuth "github.com/MrEthical07/slashAuth"
	"github.com/MrEthical07/slashAuth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() slashAuth.MetricsSnapshot
	AuditDropped() uint64
}

// Per-flow counters collapse into one instrument keyed by method and outcome.
type callSeries struct {
	id    slashAuth.MetricID
	attrs metric.ObserveOption
}

var callTable = []struct {
	id      slashAuth.MetricID
	method  string
	outcome string
}{
	{slashAuth.MetricRequestTokenSuccess, "requestToken", "success"},
	{slashAuth.MetricRequestTokenFailure, "requestToken", "failure"},
	{slashAuth.MetricMagiclinkSuccess, "magiclink", "success"},
	{slashAuth.MetricMagiclinkFailure, "magiclink", "failure"},
	{slashAuth.MetricAuthzSuccess, "authz", "success"},
	{slashAuth.MetricAuthzFailure, "authz", "failure"},
}

// Exporter observes a client snapshot on every collection cycle.
//
// Instruments:
//
//	slashauth.calls         counter, attributes method and outcome
//	slashauth.errors        counter, attribute kind
//	slashauth.latency.le    gauge of cumulative bucket counts, attribute le
//	slashauth.audit.dropped counter
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	calls     metric.Int64ObservableCounter
	callRows  []callSeries
	errs      metric.Int64ObservableCounter
	errorRows []callSeries
	latency   metric.Int64ObservableGauge
	leAttrs   []metric.ObserveOption
	dropped   metric.Int64ObservableCounter
}

// NewExporter registers instruments on meter for client.
func NewExporter(meter metric.Meter, client *slashAuth.Client) (*Exporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, client)
}

// NewExporterFromSource registers instruments on meter for any metrics source.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}

	var err error
	if e.calls, err = meter.Int64ObservableCounter("slashauth.calls", metric.WithDescription("Protocol calls by method and outcome.")); err != nil {
		return nil, fmt.Errorf("create calls counter: %w", err)
	}
	if e.errs, err = meter.Int64ObservableCounter("slashauth.errors", metric.WithDescription("Failed calls by error kind.")); err != nil {
		return nil, fmt.Errorf("create errors counter: %w", err)
	}
	if e.latency, err = meter.Int64ObservableGauge("slashauth.latency.le", metric.WithDescription("Cumulative latency bucket counts."), metric.WithUnit("{call}")); err != nil {
		return nil, fmt.Errorf("create latency gauge: %w", err)
	}
	if e.dropped, err = meter.Int64ObservableCounter("slashauth.audit.dropped", metric.WithDescription(internaldefs.AuditDroppedHelp)); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}

	for _, row := range callTable {
		e.callRows = append(e.callRows, callSeries{
			id:    row.id,
			attrs: metric.WithAttributes(attribute.String("method", row.method), attribute.String("outcome", row.outcome)),
		})
	}

	flows := make(map[slashAuth.MetricID]bool, len(callTable))
	for _, row := range callTable {
		flows[row.id] = true
	}
	for _, def := range internaldefs.CounterDefs {
		if flows[def.ID] {
			continue
		}
		e.errorRows = append(e.errorRows, callSeries{
			id:    def.ID,
			attrs: metric.WithAttributes(attribute.String("kind", errorKind(def.Name))),
		})
	}

	for _, suffix := range internaldefs.HistogramBoundSuffix {
		e.leAttrs = append(e.leAttrs, metric.WithAttributes(attribute.String("le", strings.ReplaceAll(suffix, "_", "."))))
	}

	e.registration, err = meter.RegisterCallback(e.observe, e.calls, e.errs, e.latency, e.dropped)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, row := range e.callRows {
		o.ObserveInt64(e.calls, int64(snapshot.Counters[row.id]), row.attrs)
	}
	for _, row := range e.errorRows {
		o.ObserveInt64(e.errs, int64(snapshot.Counters[row.id]), row.attrs)
	}
	if raw, ok := snapshot.Histograms[slashAuth.MetricRequestLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, attrs := range e.leAttrs {
			o.ObserveInt64(e.latency, int64(cumulative[i]), attrs)
		}
	}
	o.ObserveInt64(e.dropped, int64(e.source.AuditDropped()))
	return nil
}

// errorKind maps "slashauth_nonce_mismatch_total" to "nonce_mismatch".
func errorKind(name string) string {
	name = strings.TrimPrefix(name, "slashauth_")
	return strings.TrimSuffix(name, "_total")
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
