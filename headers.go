package phantom

import (
	"maps"
	"net/http"
	"slices"
)

// ContentType is the request body encoding of a write binding.
type ContentType string

const (
	ContentTypeJSON      ContentType = "application/json"
	ContentTypeMultipart ContentType = "multipart/form-data"
	ContentTypeForm      ContentType = "application/x-www-form-urlencoded"
)

// ContentTypes lists the supported encodings.
var ContentTypes = []ContentType{ContentTypeJSON, ContentTypeMultipart, ContentTypeForm}

// Valid reports whether c is one of the supported encodings.
func (c ContentType) Valid() bool {
	return slices.Contains(ContentTypes, c)
}

// BuildHeaders assembles request headers. The bearer token is applied
// first, then extra in key order (so an explicit Authorization wins), then
// the content type, which always wins. An empty contentType is omitted.
func BuildHeaders(token string, extra map[string]string, contentType ContentType) http.Header {
	h := make(http.Header)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		h.Set(key, extra[key])
	}
	if contentType != "" {
		h.Set("Content-Type", string(contentType))
	}
	return h
}
