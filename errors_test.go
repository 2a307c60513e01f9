package phantom

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error string", `{"error":"not found"}`, "API error (status 404): not found"},
		{"error object", `{"error":{"message":"bad"}}`, "API error (status 404): bad"},
		{"message", `{"message":"gone"}`, "API error (status 404): gone"},
		{"validation", `{"message":"invalid","errors":{"name":["is required"],"age":"too low"}}`,
			"API error (status 404): invalid\nValidation errors:\n  age: too low\n  name: is required"},
		{"plain text", "  oops  ", "API error (status 404): oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: http.StatusNotFound, Body: tt.body}
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestClassify(t *testing.T) {
	unauthorized := classify(http.MethodGet, "u", fmt.Errorf("wrapped: %w", &APIError{StatusCode: 401}))
	assert.Equal(t, KindAuth, unauthorized.Kind)
	assert.Equal(t, 401, unauthorized.StatusCode)
	assert.True(t, IsAuth(unauthorized))

	serverErr := classify(http.MethodGet, "u", &APIError{StatusCode: 500})
	assert.Equal(t, KindTransport, serverErr.Kind)
	assert.False(t, IsAuth(serverErr))

	network := classify(http.MethodGet, "u", errors.New("connection refused"))
	assert.Equal(t, KindTransport, network.Kind)
	assert.Zero(t, network.StatusCode)
	assert.Equal(t, "GET u failed: connection refused", network.Error())
}

func TestKindOf(t *testing.T) {
	assert.Empty(t, KindOf(nil))
	assert.Empty(t, KindOf(errors.New("x")))
	assert.Equal(t, KindConfigurationMissing, KindOf(ErrMissingBaseURL))
	assert.Equal(t, KindUpload, KindOf(fmt.Errorf("outer: %w", &Error{Kind: KindUpload})))
}

func TestStatusCode(t *testing.T) {
	err := &Error{Kind: KindTransport, Err: &APIError{StatusCode: 422}}
	assert.Equal(t, 422, StatusCode(err))
	assert.Zero(t, StatusCode(errors.New("x")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
}
