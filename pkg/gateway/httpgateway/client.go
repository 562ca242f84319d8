// Package httpgateway implements gateway.Gateway against the backend REST API.
package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/otelhelper"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single backend request. Allocation runs MPI and
// METIS synchronously on the backend, so it is generous.
const DefaultTimeout = 30 * time.Minute

const maxErrorBody = 64 << 10

var _ gateway.Gateway = (*Client)(nil)

// Observer receives the timing of every backend request.
type Observer interface {
	ObserveGateway(operation string, took time.Duration, err error)
}

type Client struct {
	baseURL  *url.URL
	http     *http.Client
	tracer   trace.Tracer
	observer Observer
	strict   bool
	logger   *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithStrictSchemas validates allocation and query payloads against their
// JSON schema before decoding them.
func WithStrictSchemas(strict bool) Option {
	return func(c *Client) {
		c.strict = strict
	}
}

// New creates a client for the backend rooted at baseURL, e.g.
// http://localhost:8080. The /api prefix is added by the client.
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		tracer:  otelhelper.NoopTracer(),
		logger:  logger.With("module", "http_gateway"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	schema      gojsonschema.JSONLoader
	attrs       []attribute.KeyValue
}

func jsonBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(raw), nil
}

func emptyObject() io.Reader {
	return strings.NewReader("{}")
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}

	return c.baseURL.String() + "/api/" + strings.Join(escaped, "/")
}

// do performs req and decodes a 2xx body into out. Non-2xx answers become a
// *gateway.RemoteError carrying the backend message when it sent one.
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	attrs := append([]attribute.KeyValue{attribute.String(otelhelper.OperationKey, req.op)}, req.attrs...)
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "gateway."+req.op, attrs...)
	started := time.Now()

	defer func() {
		if err != nil {
			otelhelper.SetError(span, err)
		}

		span.End()

		if c.observer != nil {
			c.observer.ObserveGateway(req.op, time.Since(started), err)
		}
	}()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.path, req.body)
	if err != nil {
		return gateway.WrapTransportError(req.op, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Accept", "application/json")

	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return gateway.WrapTransportError(req.op, fmt.Errorf("request failed: %w", err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int(otelhelper.StatusCodeKey, resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return gateway.NewRemoteError(req.op, resp.StatusCode, errorMessage(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.WrapTransportError(req.op, fmt.Errorf("failed to read response: %w", err))
	}

	if out == nil {
		return nil
	}

	if c.strict && req.schema != nil {
		if err := validatePayload(req.schema, raw); err != nil {
			return gateway.WrapTransportError(req.op, err)
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return gateway.WrapTransportError(req.op, fmt.Errorf("failed to decode response: %w", err))
	}

	c.logger.DebugContext(ctx, "Backend request completed",
		"operation", req.op,
		"status_code", resp.StatusCode,
		"took", time.Since(started),
	)

	return nil
}

// errorMessage extracts an operator-facing message from an error body.
func errorMessage(raw []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}

		return envelope.Error
	}

	return ""
}
