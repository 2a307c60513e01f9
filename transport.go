package phantom

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/phantom-go/phantom/internal/debug"
)

// DefaultTimeout bounds requests made by the default transport.
const DefaultTimeout = 30 * time.Second

// Request is a fully resolved HTTP call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  map[string]string
	Body   []byte
}

// Response is the raw outcome of a call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Transport performs HTTP calls. Implementations must return an *APIError
// (possibly wrapped) for responses with a status code of 400 or above, and
// should return the response alongside it.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// RequestOptions are per-binding transport overrides.
type RequestOptions struct {
	// Timeout bounds each call; zero leaves the transport's default.
	Timeout time.Duration
	// Query is added to the URL of every call, after GetOptions.Params.
	Query map[string]string
}

// RestyTransport is the default Transport, built on go-resty.
type RestyTransport struct {
	client *resty.Client
}

var _ Transport = (*RestyTransport)(nil)

// NewRestyTransport wraps rc. A nil rc gets a fresh client with
// DefaultTimeout.
func NewRestyTransport(rc *resty.Client) *RestyTransport {
	if rc == nil {
		rc = resty.New().SetTimeout(DefaultTimeout)
	}
	return &RestyTransport{client: rc}
}

// Do executes req.
func (t *RestyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(ctx)
	for key, values := range req.Header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", req.Method, "url", req.URL, "error", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Duration:   time.Since(start),
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "method", req.Method, "url", req.URL, "status", out.StatusCode, "duration", out.Duration)
	}

	if resp.IsError() {
		return out, &APIError{
			StatusCode: out.StatusCode,
			Body:       string(out.Body),
			RequestID:  requestIDFromHeader(out.Header),
		}
	}
	return out, nil
}

var (
	defaultTransportOnce sync.Once
	defaultTransport     Transport
)

func sharedTransport() Transport {
	defaultTransportOnce.Do(func() {
		defaultTransport = NewRestyTransport(nil)
	})
	return defaultTransport
}
