package phantom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"reflect"

	"github.com/google/uuid"
)

// call is one resolved request of a binding.
type call struct {
	method      string
	url         string
	header      http.Header
	query       map[string]string
	body        any
	contentType ContentType
	request     RequestOptions
}

// execute encodes the body, applies the per-binding overrides and runs the
// call. Every failure is returned as *Error.
func execute(ctx context.Context, t Transport, c call) (*Response, error) {
	data, contentType, err := encodeBody(c.contentType, c.body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: c.method, URL: c.url, Err: err}
	}
	header := c.header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	query := c.query
	if len(c.request.Query) > 0 {
		query = maps.Clone(c.query)
		if query == nil {
			query = make(map[string]string, len(c.request.Query))
		}
		maps.Copy(query, c.request.Query)
	}

	if c.request.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.request.Timeout)
		defer cancel()
	}

	resp, err := t.Do(ctx, &Request{
		Method: c.method,
		URL:    c.url,
		Header: header,
		Query:  query,
		Body:   data,
	})
	if err != nil {
		return resp, classify(c.method, c.url, err)
	}
	return resp, nil
}

// decode unmarshals a response body into T. Non-JSON bodies are kept as a
// string when T is an interface type.
func decode[T any](method, url string, resp *Response) (T, error) {
	var out T
	if resp == nil || len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		if p, ok := any(&out).(*any); ok {
			*p = string(resp.Body)
			return out, nil
		}
		return out, &Error{
			Kind:       KindTransport,
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected API response format (JSON decode failed): %w", err),
		}
	}
	return out, nil
}

func bindingLogger(l *slog.Logger, method string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("binding_id", uuid.NewString(), "method", method)
}

func isZero(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || rv.IsZero()
}
