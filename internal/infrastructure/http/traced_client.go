package http

import (
	"log/slog"
	"net/http"
	"time"

	ctxutil "github.com/leonardou92/validarPago/internal/infrastructure/context"
	"github.com/leonardou92/validarPago/internal/infrastructure/security"
)

// TracedClient wraps an HTTP client to log every outbound request with its
// duration and status. Headers and URLs are sanitized so tokens never
// reach the logs.
type TracedClient struct {
	client *http.Client
	log    *slog.Logger
}

// NewTracedClient creates a tracing HTTP client wrapper.
func NewTracedClient(client *http.Client, log *slog.Logger) *TracedClient {
	if client == nil {
		client = NewClient(nil)
	}
	return &TracedClient{client: client, log: log}
}

// Do executes the request, logging method, sanitized URL, status and
// duration. Failures are logged at error level with the transport error.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	sanitizedURL := security.SanitizeURL(req.URL.String())

	attrs := []any{
		"method", req.Method,
		"url", sanitizedURL,
	}
	if correlationID := ctxutil.GetCorrelationID(req.Context()); correlationID != "" {
		attrs = append(attrs, "correlation_id", correlationID)
	}
	if c.log.Enabled(req.Context(), slog.LevelDebug) {
		attrs = append(attrs, "headers", security.SanitizeHeaders(req.Header))
	}

	resp, err := c.client.Do(req)
	durationMs := float64(time.Since(start).Nanoseconds()) / 1e6
	attrs = append(attrs, "duration_ms", durationMs)

	if err != nil {
		attrs = append(attrs, "error", err)
		c.log.Error("Outbound HTTP request failed", attrs...)
		return nil, err
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if resp.StatusCode >= 500 {
		c.log.Error("Outbound HTTP request", attrs...)
	} else if resp.StatusCode >= 400 {
		c.log.Warn("Outbound HTTP request", attrs...)
	} else {
		c.log.Debug("Outbound HTTP request", attrs...)
	}

	return resp, nil
}
