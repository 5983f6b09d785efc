package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport logs every outbound request. The logger is taken from the
// request context when present, falling back to Logger.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	logger := Logger(r.Context(), t.Logger).With(
		"method", r.Method,
		"host", r.URL.Host,
		"path", r.URL.Path,
	)
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		logger = logger.With("req_id", reqID)
	}

	resp, err := t.Base.RoundTrip(r)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		logger.WarnContext(r.Context(), "http_request_failed",
			"duration_ms", duration,
			"error", err,
		)
		return nil, err
	}

	logger.DebugContext(r.Context(), "http_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}
