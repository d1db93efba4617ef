// Package backend is a typed client for the REST service that owns products,
// sales and orders.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/pos-admin/internal/obs"
	"github.com/noah-isme/pos-admin/internal/resilience"
)

// ErrUnavailable wraps transport failures and open circuits.
var ErrUnavailable = errors.New("backend unavailable")

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Message extracts the user-facing message of a backend failure, if any.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	HTTP        *http.Client
	Breaker     *resilience.Breaker
	Timeout     time.Duration
	ReadRetries int
	Logger      zerolog.Logger
	Meter       metric.Meter
}

// Client issues requests to the backend.
type Client struct {
	baseURL *url.URL
	http    resilience.HTTPClient
	logger  zerolog.Logger
	latency metric.Float64Histogram
}

// NewHTTPClient returns an instrumented HTTP client for backend calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("backend base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", base.Scheme)
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("backend")
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter("pos-admin/backend")
	}
	latency, err := meter.Float64Histogram("backend.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of backend API calls."))
	if err != nil {
		return nil, fmt.Errorf("backend latency histogram: %w", err)
	}
	return &Client{
		baseURL: base,
		http: resilience.HTTPClient{
			Client:      httpClient,
			Breaker:     breaker,
			BaseBackoff: 100 * time.Millisecond,
			MaxAttempts: cfg.ReadRetries + 1,
			Jitter:      0.2,
			Timeout:     cfg.Timeout,
		},
		logger:  cfg.Logger.With().Str("component", "backend").Logger(),
		latency: latency,
	}, nil
}

// Ping checks that the backend answers. Any HTTP response counts as alive.
// An open breaker fails the check without a call.
func (c *Client) Ping(ctx context.Context) error {
	if c.http.Breaker != nil && c.http.Breaker.State() == resilience.Open {
		return fmt.Errorf("%w: %v", ErrUnavailable, resilience.ErrOpenCircuit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String()+"/productos", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &Error{Status: resp.StatusCode}
	}
	return nil
}

// call performs one API request. route is the templated path used for
// telemetry; path is the concrete one.
func (c *Client) call(ctx context.Context, method, route, path string, query url.Values, in, out any) error {
	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, route, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	elapsed := obs.DurationMillis(time.Since(start))
	c.latency.Record(ctx, elapsed, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	))
	if obs.BackendRequestLatency != nil {
		obs.BackendRequestLatency.WithLabelValues(method, route).Observe(elapsed)
	}
	if err != nil {
		c.record(method, route, "unavailable")
		c.logger.Warn().Err(err).Str("method", method).Str("route", route).Msg("backend_unavailable")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(method, route, "error")
		return fmt.Errorf("read %s %s: %w", method, route, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.record(method, route, "error")
		c.logger.Warn().Str("method", method).Str("route", route).Int("status", resp.StatusCode).Msg("backend_error")
		return &Error{Status: resp.StatusCode, Message: extractMessage(raw)}
	}
	c.record(method, route, "ok")
	c.logger.Debug().Str("method", method).Str("route", route).Int("status", resp.StatusCode).Float64("duration_ms", elapsed).Msg("backend_call")

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, route, err)
	}
	return nil
}

func (c *Client) record(method, route, result string) {
	if obs.BackendRequestsTotal != nil {
		obs.BackendRequestsTotal.WithLabelValues(method, route, result).Inc()
	}
}

type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		DefaultMessage string `json:"defaultMessage"`
	} `json:"errors"`
}

// extractMessage prefers the first field validation message, then the top
// level message.
func extractMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, e := range body.Errors {
		if msg := strings.TrimSpace(e.DefaultMessage); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(body.Message)
}
