// Package cloudinary uploads media to a Cloudinary-compatible endpoint and
// returns the hosted URL.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultRoute is appended to CloudBaseURL when CloudRoute is empty.
	DefaultRoute   = "/image/upload"
	DefaultTimeout = 60 * time.Second
)

// ErrMissingOptions is returned when an upload is attempted without options.
var ErrMissingOptions = errors.New("cloudinary upload options are not provided")

// Options configures the upload endpoint.
type Options struct {
	CloudBaseURL string `json:"cloud_base_url" toml:"cloud_base_url"`
	CloudRoute   string `json:"cloud_route,omitempty" toml:"cloud_route,omitempty"`
	UploadPreset string `json:"upload_preset" toml:"upload_preset"`
}

// Endpoint returns the full upload URL.
func (o Options) Endpoint() string {
	route := o.CloudRoute
	if route == "" {
		route = DefaultRoute
	}
	return o.CloudBaseURL + route
}

// File is a named binary to upload. Name may be empty; one is derived from
// the detected content type.
type File struct {
	Name   string
	Reader io.Reader
}

// UploadError is returned when the upload endpoint rejects the request.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.Body)
}

// Client performs uploads over HTTP.
type Client struct {
	http *resty.Client
}

// New creates a Client with its own resty client.
func New() *Client {
	return NewWithClient(resty.New().SetTimeout(DefaultTimeout))
}

// NewWithClient creates a Client on top of an existing resty client.
func NewWithClient(rc *resty.Client) *Client {
	return &Client{http: rc}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends value as the "file" form field together with the upload
// preset and returns the secure URL of the stored asset.
//
// Strings are sent as a plain form value (remote URL, data URI or base64),
// which the endpoint fetches itself. []byte, File and io.Reader values are
// sent as a file part.
func (c *Client) Upload(ctx context.Context, value any, opts *Options) (string, error) {
	if opts == nil || strings.TrimSpace(opts.CloudBaseURL) == "" {
		return "", ErrMissingOptions
	}

	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"upload_preset": opts.UploadPreset})

	switch v := value.(type) {
	case string:
		req.SetMultipartFormData(map[string]string{"file": v})
	case []byte:
		setFilePart(req, "", v)
	case File:
		data, err := io.ReadAll(v.Reader)
		if err != nil {
			return "", fmt.Errorf("failed to read upload %s: %w", v.Name, err)
		}
		setFilePart(req, v.Name, data)
	case *File:
		if v == nil {
			return "", fmt.Errorf("unsupported upload value: nil file")
		}
		return c.Upload(ctx, *v, opts)
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		setFilePart(req, "", data)
	default:
		return "", fmt.Errorf("unsupported upload value of type %T", value)
	}

	resp, err := req.Post(opts.Endpoint())
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	if resp.IsError() {
		return "", &UploadError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var out uploadResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("unexpected upload response format (JSON decode failed): %w", err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("upload response did not include secure_url")
	}
	return out.SecureURL, nil
}

func setFilePart(req *resty.Request, name string, data []byte) {
	mtype := mimetype.Detect(data)
	if name == "" {
		name = "upload" + mtype.Extension()
	}
	req.SetMultipartField("file", name, mtype.String(), bytes.NewReader(data))
}
