package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mr1hm/go-disaster-admin/internal/metrics"
)

const maxBodySize = 4 << 20

var tracer = otel.Tracer("disaster-admin/transport")

// Caller is the single entry point to the remote API. Resource accessors
// depend on it rather than on *Client so tests can substitute a fake.
type Caller interface {
	Call(ctx context.Context, method, path string, body, out any) error
}

type Client struct {
	baseURL    string
	base       *http.Transport
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit throttles outbound calls to rps requests per second.
// Zero or negative disables throttling.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    base,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(base),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close drops idle keep-alive connections.
func (c *Client) Close() {
	c.base.CloseIdleConnections()
}

// Call sends body (if non-nil) as JSON to path and decodes a success response
// into out (if non-nil).
func (c *Client) Call(ctx context.Context, method, path string, body, out any) (err error) {
	ctx, span := tracer.Start(ctx, method+" "+metrics.Route(path),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.target", path),
		))
	start := time.Now()
	defer func() {
		metrics.ObserveAPICall(method, path, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("error waiting for rate limiter: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Error("api call failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
		}
		slog.Error("api call failed", "method", method, "path", path, "status", resp.StatusCode, "error", reqErr.Message)
		return reqErr
	}

	if readErr != nil {
		return &RequestError{
			StatusCode: resp.StatusCode,
			Message:    "error reading response body",
			Err:        readErr,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		slog.Error("api call returned invalid JSON", "method", method, "path", path, "status", resp.StatusCode)
		return &RequestError{
			StatusCode: resp.StatusCode,
			Message:    "invalid JSON response",
			Err:        err,
		}
	}

	return nil
}

// errorMessage picks the most specific human-readable message from an error
// response: a JSON "error" or "message" field, then the raw text, then a
// generic status line.
func errorMessage(status int, data []byte) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", status)

	if json.Valid(data) {
		var body struct {
			Error   any `json:"error"`
			Message any `json:"message"`
		}
		if err := json.Unmarshal(data, &body); err == nil {
			if s, ok := body.Error.(string); ok && s != "" {
				return s
			}
			if s, ok := body.Message.(string); ok && s != "" {
				return s
			}
		}
		return fallback
	}

	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return fallback
}
