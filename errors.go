package phantom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind classifies binding failures.
type ErrorKind string

const (
	// KindAuth indicates the server answered 401 Unauthorized.
	KindAuth ErrorKind = "auth_failure"
	// KindTransport covers every other request failure: no response,
	// non-2xx status, unreadable response body.
	KindTransport ErrorKind = "transport_failure"
	// KindUpload indicates a tagged media field could not be uploaded.
	KindUpload ErrorKind = "upload_failure"
	// KindConfigurationMissing indicates a required option such as the base
	// URL was not configured.
	KindConfigurationMissing ErrorKind = "configuration_missing"
)

// ErrMissingBaseURL is reported when neither the binding options nor the
// global configuration carry a base URL.
var ErrMissingBaseURL = errors.New("base URL is required")

// APIError is a response with a non-2xx status code.
type APIError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, errorMessage(e.Body))
}

// Error is the error stored in binding state and returned by triggers.
// It unwraps to the underlying *APIError, transport error or upload error.
type Error struct {
	Kind       ErrorKind
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err is nil or not produced by
// a binding.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrMissingBaseURL) {
		return KindConfigurationMissing
	}
	return ""
}

// IsAuth reports whether err is a 401 response.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// classify wraps a transport failure with request context.
func classify(method, url string, err error) *Error {
	status := StatusCode(err)
	kind := KindTransport
	if status == http.StatusUnauthorized {
		kind = KindAuth
	}
	return &Error{
		Kind:       kind,
		Method:     method,
		URL:        url,
		StatusCode: status,
		Err:        err,
	}
}

// errorMessage extracts a readable message from an API error body,
// falling back to the raw body.
func errorMessage(body string) string {
	var errResp struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
		Errors  any    `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &errResp); err != nil {
		return truncate(strings.TrimSpace(body), 200)
	}

	var result string
	switch v := errResp.Error.(type) {
	case string:
		result = v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			result = msg
		}
	}
	if result == "" {
		result = errResp.Message
	}

	if validation := formatValidationErrors(errResp.Errors); validation != "" {
		if result != "" {
			return result + "\nValidation errors:\n" + validation
		}
		return "Validation errors:\n" + validation
	}
	if result != "" {
		return result
	}
	return truncate(strings.TrimSpace(body), 200)
}

// formatValidationErrors handles both {"field": "msg"} and
// {"field": ["msg", ...]} shapes.
func formatValidationErrors(errs any) string {
	errMap, ok := errs.(map[string]any)
	if !ok || len(errMap) == 0 {
		return ""
	}

	var lines []string
	for field, value := range errMap {
		switch v := value.(type) {
		case string:
			lines = append(lines, fmt.Sprintf("  %s: %s", field, v))
		case []any:
			for _, msg := range v {
				if s, ok := msg.(string); ok {
					lines = append(lines, fmt.Sprintf("  %s: %s", field, s))
				}
			}
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return header.Get("X-Request-Id")
}
