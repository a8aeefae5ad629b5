package slashAuth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/slashAuth/transport"
)

const (
	maxTransportTimeout   = 5 * time.Minute
	maxResponseBytesLimit = 64 << 20
	maxAuditBufferSize    = 1 << 20
)

// Config holds the client's tunables. It is copied at Build and treated as
// immutable afterwards.
type Config struct {
	Transport TransportConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the default HTTP transport. It is ignored when a
// custom Transport is supplied through [Builder.WithTransport].
type TransportConfig struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	UserAgent        string
	Headers          map[string]string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			Timeout:          10 * time.Second,
			MaxResponseBytes: 1 << 20,
			UserAgent:        "slashauth-go",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate checks a configuration for values the client cannot operate with.
func (c Config) Validate() error {
	if c.Transport.Timeout < 0 || c.Transport.Timeout > maxTransportTimeout {
		return errors.New("transport timeout must be between 0 and 5m")
	}
	if c.Transport.MaxResponseBytes < 0 || c.Transport.MaxResponseBytes > maxResponseBytesLimit {
		return errors.New("transport max response bytes must be between 0 and 64MiB")
	}
	for k := range c.Transport.Headers {
		if strings.TrimSpace(k) == "" {
			return errors.New("transport headers contain an empty name")
		}
		if http.CanonicalHeaderKey(k) == "Content-Type" {
			return errors.New("transport headers must not override Content-Type")
		}
	}
	if c.Audit.Enabled && (c.Audit.BufferSize <= 0 || c.Audit.BufferSize > maxAuditBufferSize) {
		return errors.New("audit buffer size must be between 1 and 1048576 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("latency histograms require metrics to be enabled")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if c.Transport.Headers != nil {
		out.Transport.Headers = make(map[string]string, len(c.Transport.Headers))
		for k, v := range c.Transport.Headers {
			out.Transport.Headers[k] = v
		}
	}
	return out
}

func (c TransportConfig) transportConfig() transport.Config {
	return transport.Config{
		Timeout:          c.Timeout,
		MaxResponseBytes: c.MaxResponseBytes,
		UserAgent:        c.UserAgent,
		Headers:          c.Headers,
	}
}
