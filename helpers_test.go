package phantom

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
)

const testBaseURL = "https://api.test/"

// fakeTransport records every request and answers with handler.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []*Request
	handler func(req *Request) (*Response, error)
}

func (f *fakeTransport) Do(_ context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeTransport) Calls() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func respondWith(status int, body string) func(*Request) (*Response, error) {
	return func(*Request) (*Response, error) {
		return jsonResponse(status, body)
	}
}

func jsonResponse(status int, body string) (*Response, error) {
	resp := &Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
	if status >= 400 {
		return resp, &APIError{StatusCode: status, Body: body}
	}
	return resp, nil
}

func decodeBody(t *testing.T, req *Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("request body is not JSON: %v (%s)", err, req.Body)
	}
	return body
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

func resetConfig(t *testing.T) {
	t.Helper()
	ResetConfig()
	t.Cleanup(ResetConfig)
}

func boolPtr(b bool) *bool {
	return &b
}
