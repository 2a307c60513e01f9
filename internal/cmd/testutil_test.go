package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/phantom-go/phantom/internal/config"
	"github.com/phantom-go/phantom/internal/iocontext"
	"github.com/phantom-go/phantom/session"
)

// testEnv runs commands against a mock API with isolated config, env and
// keyring.
type testEnv struct {
	t      *testing.T
	server *httptest.Server
	ring   keyring.Keyring
	out    *bytes.Buffer
	errOut *bytes.Buffer
	stdin  string
}

var phantomEnvVars = []string{
	"PHANTOM_BASE_URL",
	"PHANTOM_TOKEN",
	"PHANTOM_CONTENT_TYPE",
	"PHANTOM_TIMEOUT",
	"PHANTOM_HEADERS",
	"PHANTOM_REDIS_URL",
	"PHANTOM_CLOUDINARY_BASE_URL",
	"PHANTOM_CLOUDINARY_ROUTE",
	"PHANTOM_CLOUDINARY_UPLOAD_PRESET",
	"PHANTOM_NO_CACHE",
}

// setupTestEnv starts a server with handler and points PHANTOM_BASE_URL at
// it. PHANTOM_TOKEN is "test-token".
func setupTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	for _, name := range phantomEnvVars {
		t.Setenv(name, "")
	}
	t.Chdir(t.TempDir())
	t.Setenv("PHANTOM_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("PHANTOM_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))
	t.Setenv("PHANTOM_BASE_URL", server.URL)
	t.Setenv("PHANTOM_TOKEN", "test-token")

	ring := keyring.NewArrayKeyring(nil)
	t.Cleanup(config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))

	return &testEnv{
		t:      t,
		server: server,
		ring:   ring,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
}

// run executes the CLI with args. Output buffers are reset first.
func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	e.out.Reset()
	e.errOut.Reset()
	streams := &iocontext.IO{Out: e.out, ErrOut: e.errOut, In: strings.NewReader(e.stdin)}
	return Execute(iocontext.WithIO(context.Background(), streams), args)
}

// decodeOutput unmarshals stdout.
func (e *testEnv) decodeOutput() any {
	e.t.Helper()
	var v any
	if err := json.Unmarshal(e.out.Bytes(), &v); err != nil {
		e.t.Fatalf("stdout is not JSON: %v\n%s", err, e.out.String())
	}
	return v
}

// jsonResponse returns a handler answering with status and body.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// recordedRequest is what routeHandler saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// routeHandler routes "METHOD PATH" to handlers and records requests.
// Unknown routes get 404.
type routeHandler struct {
	routes map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []recordedRequest
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

// On registers handler for method and path.
func (h *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	h.routes[method+" "+path] = handler
	return h
}

func (h *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	h.mu.Lock()
	h.requests = append(h.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	h.mu.Unlock()

	if handler, ok := h.routes[r.Method+" "+r.URL.Path]; ok {
		handler(w, r)
		return
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// Requests returns the recorded requests.
func (h *routeHandler) Requests() []recordedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recordedRequest(nil), h.requests...)
}

// last returns the most recent request, failing the test when there is none.
func (h *routeHandler) last(t *testing.T) recordedRequest {
	t.Helper()
	reqs := h.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request recorded")
	}
	return reqs[len(reqs)-1]
}

// keyringStore returns a session store over the test keyring.
func (e *testEnv) keyringStore() *session.KeyringStore {
	return session.NewKeyringStore(e.ring)
}
