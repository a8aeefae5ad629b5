package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultMaxResponseBytes = 1 << 20
	maxErrorBodyBytes       = 512
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected http status")
	// ErrMalformedJSON is returned when a 2xx body is not valid JSON.
	ErrMalformedJSON = errors.New("malformed json response")
	// ErrResponseTooLarge is returned when the body exceeds MaxResponseBytes.
	ErrResponseTooLarge = errors.New("response body too large")
)

// Config is fixed at construction; HTTP never consults process-wide state.
type Config struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	UserAgent        string
	Headers          map[string]string
}

// StatusError describes a non-2xx response. It matches ErrUnexpectedStatus
// under errors.Is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected http status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected http status %d: %s", e.StatusCode, e.Body)
}

// Is implements errors.Is matching.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// HTTP posts JSON bodies and returns the raw JSON response.
type HTTP struct {
	client  *http.Client
	maxBody int64
	headers http.Header
}

// NewHTTP builds an HTTP transport. A nil client gets a fresh http.Client
// with cfg.Timeout.
func NewHTTP(cfg Config, client *http.Client) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaultMaxResponseBytes
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	headers := make(http.Header, len(cfg.Headers)+2)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	return &HTTP{
		client:  client,
		maxBody: cfg.MaxResponseBytes,
		headers: headers,
	}
}

// PostJSON sends body to target and returns the response body once it is
// known to be valid JSON from a 2xx response.
func (h *HTTP) PostJSON(ctx context.Context, target string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, values := range h.headers {
		req.Header[k] = append([]string(nil), values...)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxBody {
		return nil, ErrResponseTooLarge
	}
	if !json.Valid(data) {
		return nil, ErrMalformedJSON
	}

	return data, nil
}
