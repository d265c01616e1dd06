package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/junioryono/bindr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client sends proxied calls to a Server. Use Client.Handle as a
// bindr.ProxyHandler.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tracer  trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used to send calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every call. Zero means no timeout beyond the caller's
// context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTracerProvider sets the provider client spans are created with. The
// default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient creates a Client for the Server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

var _ bindr.ProxyHandler = (*Client)(nil).Handle

// Handle sends call and waits for its result. Successful results are
// returned as a Result. Failures reported by the server are returned as
// *CallError.
func (c *Client) Handle(ctx context.Context, call *bindr.Call) (any, error) {
	ctx, span := c.tracer.Start(ctx, "bindr.call "+call.Type+"."+call.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("bindr.call_id", call.ID),
			attribute.String("bindr.type", call.Type),
			attribute.String("bindr.method", call.Method),
		),
	)
	defer span.End()

	result, err := c.do(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, call *bindr.Call) (any, error) {
	args := call.Args
	if args == nil {
		args = []any{}
	}

	body, err := json.Marshal(outgoingCall{
		ID:     call.ID,
		Type:   call.Type,
		Method: call.Method,
		Args:   args,
	})
	if err != nil {
		return nil, fmt.Errorf("encode call %s.%s: %w", call.Type, call.Method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send call %s.%s: %w", call.Type, call.Method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out callResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &CallError{
			Code:    CodeCallFailed,
			Message: fmt.Sprintf("malformed response: %s", bytes.TrimSpace(raw)),
			Status:  resp.StatusCode,
		}
	}

	if out.Error != nil {
		return nil, &CallError{Code: out.Error.Code, Message: out.Error.Message, Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &CallError{Code: CodeCallFailed, Message: http.StatusText(resp.StatusCode), Status: resp.StatusCode}
	}

	return Result(out.Result), nil
}
