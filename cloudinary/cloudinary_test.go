package cloudinary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestOptionsEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.example.com/v1_1/demo/image/upload",
		Options{CloudBaseURL: "https://api.example.com/v1_1/demo"}.Endpoint())
	assert.Equal(t, "https://api.example.com/v1_1/demo/raw/upload",
		Options{CloudBaseURL: "https://api.example.com/v1_1/demo", CloudRoute: "/raw/upload"}.Endpoint())
}

func TestUploadMissingOptions(t *testing.T) {
	c := New()
	_, err := c.Upload(context.Background(), "data", nil)
	assert.ErrorIs(t, err, ErrMissingOptions)

	_, err = c.Upload(context.Background(), "data", &Options{UploadPreset: "p"})
	assert.ErrorIs(t, err, ErrMissingOptions)
}

func TestUploadStringValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))
		assert.Equal(t, "https://example.com/cat.png", r.FormValue("file"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/cat.png"}`))
	}))
	defer server.Close()

	url, err := New().Upload(context.Background(), "https://example.com/cat.png", &Options{
		CloudBaseURL: server.URL,
		UploadPreset: "unsigned",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cat.png", url)
}

func TestUploadBinaryValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/raw/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "upload.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, pngHeader, data)
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/raw.png"}`))
	}))
	defer server.Close()

	url, err := New().Upload(context.Background(), pngHeader, &Options{
		CloudBaseURL: server.URL,
		CloudRoute:   "/raw/upload",
		UploadPreset: "p",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/raw.png", url)
}

func TestUploadNamedFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "avatar.txt", header.Filename)
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/avatar.txt"}`))
	}))
	defer server.Close()

	url, err := New().Upload(context.Background(), File{Name: "avatar.txt", Reader: strings.NewReader("hello")}, &Options{
		CloudBaseURL: server.URL,
		UploadPreset: "p",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatar.txt", url)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "rejected", status: http.StatusBadRequest, body: `{"error":{"message":"bad preset"}}`, wantErr: "status 400"},
		{name: "no url", status: http.StatusOK, body: `{}`, wantErr: "secure_url"},
		{name: "not json", status: http.StatusOK, body: `nope`, wantErr: "JSON decode failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New().Upload(context.Background(), "x", &Options{CloudBaseURL: server.URL, UploadPreset: "p"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUploadUnsupportedValue(t *testing.T) {
	_, err := New().Upload(context.Background(), 42, &Options{CloudBaseURL: "http://127.0.0.1:1", UploadPreset: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported upload value")
}
