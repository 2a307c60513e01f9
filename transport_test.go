package phantom

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyTransportDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	resp, err := NewRestyTransport(nil).Do(t.Context(), &Request{
		Method: http.MethodPost,
		URL:    server.URL + "/items",
		Header: BuildHeaders("t", nil, ContentTypeJSON),
		Query:  map[string]string{"page": "2"},
		Body:   []byte(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":7}`, string(resp.Body))
}

func TestRestyTransportAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-1")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid"}`))
	}))
	defer server.Close()

	resp, err := NewRestyTransport(nil).Do(t.Context(), &Request{Method: http.MethodGet, URL: server.URL})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "invalid")
}

func TestRestyTransportNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	resp, err := NewRestyTransport(nil).Do(t.Context(), &Request{Method: http.MethodGet, URL: url})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Zero(t, StatusCode(err))
}

func TestExecuteAppliesRequestOptions(t *testing.T) {
	var deadline bool
	transport := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		_, deadline = ctx.Deadline()
		assert.Equal(t, map[string]string{"a": "1", "b": "override", "c": "3"}, req.Query)
		return &Response{StatusCode: http.StatusOK}, nil
	})

	_, err := execute(t.Context(), transport, call{
		method: http.MethodGet,
		url:    "u",
		query:  map[string]string{"a": "1", "b": "2"},
		request: RequestOptions{
			Timeout: time.Second,
			Query:   map[string]string{"b": "override", "c": "3"},
		},
	})
	require.NoError(t, err)
	assert.True(t, deadline)
}

func TestExecuteMultipartContentType(t *testing.T) {
	var got string
	transport := TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
		got = req.Header.Get("Content-Type")
		return &Response{StatusCode: http.StatusOK}, nil
	})

	_, err := execute(t.Context(), transport, call{
		method:      http.MethodPost,
		url:         "u",
		header:      BuildHeaders("", nil, ContentTypeMultipart),
		body:        Payload{"a": "1"},
		contentType: ContentTypeMultipart,
	})
	require.NoError(t, err)
	assert.Contains(t, got, "multipart/form-data; boundary=")
}

func TestDecode(t *testing.T) {
	type item struct {
		ID int `json:"id"`
	}

	got, err := decode[item](http.MethodGet, "u", &Response{Body: []byte(`{"id":3}`)})
	require.NoError(t, err)
	assert.Equal(t, item{ID: 3}, got)

	text, err := decode[any](http.MethodGet, "u", &Response{Body: []byte("plain")})
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	_, err = decode[item](http.MethodGet, "u", &Response{StatusCode: 200, Body: []byte("plain")})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))

	empty, err := decode[item](http.MethodGet, "u", &Response{})
	require.NoError(t, err)
	assert.Zero(t, empty)
}
