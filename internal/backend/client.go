// Package backend talks to the tutoring platform's REST API. It owns every
// byte that crosses the wire; callers only see normalized models.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/observability"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx answer from the backend.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Message extracts the backend's own explanation from the body, if any.
func (e *Error) Message() string {
	return models.ErrorMessage([]byte(e.Body))
}

// maxErrorBody caps how much of an error body is kept.
const maxErrorBody = 4 << 10

// Client calls the backend API. A zero token sends no Authorization header.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// NewClient creates a client for the API at baseURL. Requests are traced
// with otelhttp and bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger,
		metrics: metrics,
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Transport returns the instrumented round tripper, for reuse by the proxy.
func (c *Client) Transport() http.RoundTripper { return c.httpClient.Transport }

// do sends one request and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, operation, method, path, token string, in any) ([]byte, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.RecordBackendLatency(operation, time.Since(start))
		c.metrics.IncrementBackendRequests(operation, outcome)
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			outcome = "failure"
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "failure"
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &Error{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// StatusOf returns the HTTP status of a backend error, or 0.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

// Ping checks that the backend answers HTTP at all. Any status counts as
// reachable; only transport failures are returned.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/", "", nil)
	if err != nil && StatusOf(err) == 0 {
		return err
	}
	return nil
}
