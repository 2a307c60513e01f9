// Package dryrun previews requests instead of sending them.
package dryrun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/cloudinary"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Preview is a request that would have been sent.
type Preview struct {
	Method string
	URL    string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// Write outputs the preview to w. The Authorization header is redacted.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "[DRY-RUN] Would send %s %s\n", p.Method, p.URL)
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")

	for _, key := range slices.Sorted(maps.Keys(p.Query)) {
		_, _ = fmt.Fprintf(w, "  ?%s=%s\n", key, p.Query[key])
	}
	for _, name := range slices.Sorted(maps.Keys(p.Header)) {
		value := strings.Join(p.Header[name], ", ")
		if name == "Authorization" {
			value = redact(value)
		}
		_, _ = fmt.Fprintf(w, "  %s: %s\n", name, value)
	}

	if len(p.Body) > 0 {
		_, _ = fmt.Fprintln(w)
		var pretty bytes.Buffer
		if json.Indent(&pretty, p.Body, "  ", "  ") == nil {
			_, _ = fmt.Fprintf(w, "  %s\n", pretty.String())
		} else {
			_, _ = fmt.Fprintf(w, "  %s\n", p.Body)
		}
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}

// Transport returns a phantom.Transport that writes a Preview of every
// request to w and answers 204 No Content without sending anything.
func Transport(w io.Writer) phantom.Transport {
	var mu sync.Mutex
	return phantom.TransportFunc(func(_ context.Context, req *phantom.Request) (*phantom.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		(&Preview{
			Method: req.Method,
			URL:    req.URL,
			Query:  req.Query,
			Header: req.Header,
			Body:   req.Body,
		}).Write(w)
		return &phantom.Response{StatusCode: http.StatusNoContent, Header: http.Header{}}, nil
	})
}

// Uploader returns a phantom.Uploader that reports each upload to w and
// returns a placeholder URL instead of uploading.
func Uploader(w io.Writer) phantom.Uploader {
	var mu sync.Mutex
	return phantom.UploaderFunc(func(_ context.Context, value any, opts *cloudinary.Options) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "[DRY-RUN] Would upload %s to %s\n", describe(value), opts.Endpoint())
		return "dry-run://" + opts.Endpoint(), nil
	})
}

func describe(value any) string {
	switch v := value.(type) {
	case cloudinary.File:
		return v.Name
	case *cloudinary.File:
		if v != nil {
			return v.Name
		}
	case string:
		if len(v) > 40 {
			return v[:40] + "..."
		}
		return v
	case []byte:
		return fmt.Sprintf("%d bytes", len(v))
	}
	return fmt.Sprintf("%T", value)
}

func redact(value string) string {
	scheme, token, ok := strings.Cut(value, " ")
	if !ok {
		return "[redacted]"
	}
	if len(token) <= 4 {
		return scheme + " [redacted]"
	}
	return scheme + " ..." + token[len(token)-4:]
}
