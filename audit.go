package slashAuth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AuditEvent records the outcome of one protocol call. It never carries
// secret keys, signatures, or result payloads.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	CallID    string            `json:"call_id"`
	Method    string            `json:"method"`
	Target    string            `json:"target,omitempty"`
	PublicKey string            `json:"public_key,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration_ns"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LogrusSink logs events as structured logrus entries: successes at Info,
// failures at Warn.
type LogrusSink struct {
	logger logrus.FieldLogger
}

// NewLogrusSink returns a sink writing to logger, or the standard logger when nil.
func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{logger: logger}
}

func (s *LogrusSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil {
		return
	}
	fields := logrus.Fields{
		"event":       event.EventType,
		"call_id":     event.CallID,
		"method":      event.Method,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if event.Target != "" {
		fields["target"] = event.Target
	}
	if event.PublicKey != "" {
		fields["public_key"] = event.PublicKey
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := s.logger.WithFields(fields)
	if event.Success {
		entry.Info("slashauth call succeeded")
		return
	}
	entry.WithField("error", event.Error).Warn("slashauth call failed")
}
