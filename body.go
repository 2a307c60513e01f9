package phantom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/url"
	"slices"

	"github.com/phantom-go/phantom/cloudinary"
)

// Payload is the body of a write request. Values may be scalars, nested
// maps and slices, []byte, io.Reader, cloudinary.File or CloudinaryImage
// markers.
type Payload = map[string]any

// encodeBody serializes payload for contentType and returns the body and
// the exact Content-Type header value to send (multipart adds a boundary).
// A nil payload yields a nil body.
func encodeBody(contentType ContentType, payload any) ([]byte, string, error) {
	if payload == nil {
		return nil, "", nil
	}
	if contentType == "" {
		contentType = ContentTypeJSON
	}

	switch contentType {
	case ContentTypeJSON:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, string(ContentTypeJSON), nil

	case ContentTypeForm:
		fields, err := asPayload(payload)
		if err != nil {
			return nil, "", err
		}
		form := url.Values{}
		for _, key := range slices.Sorted(maps.Keys(fields)) {
			value, err := formValue(fields[key])
			if err != nil {
				return nil, "", fmt.Errorf("failed to encode field %s: %w", key, err)
			}
			form.Set(key, value)
		}
		return []byte(form.Encode()), string(ContentTypeForm), nil

	case ContentTypeMultipart:
		fields, err := asPayload(payload)
		if err != nil {
			return nil, "", err
		}
		return encodeMultipart(fields)

	default:
		return nil, "", fmt.Errorf("unsupported content type %q", contentType)
	}
}

func encodeMultipart(fields Payload) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if err := writeMultipartField(writer, key, fields[key]); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func writeMultipartField(writer *multipart.Writer, key string, value any) error {
	var (
		name   = key
		reader io.Reader
	)
	switch v := value.(type) {
	case []byte:
		reader = bytes.NewReader(v)
	case cloudinary.File:
		if v.Name != "" {
			name = v.Name
		}
		reader = v.Reader
	case io.Reader:
		reader = v
	default:
		text, err := formValue(value)
		if err != nil {
			return fmt.Errorf("failed to encode field %s: %w", key, err)
		}
		if err := writer.WriteField(key, text); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
		return nil
	}

	part, err := writer.CreateFormFile(key, name)
	if err != nil {
		return fmt.Errorf("failed to create form file %s: %w", key, err)
	}
	if _, err := io.Copy(part, reader); err != nil {
		return fmt.Errorf("failed to write file content %s: %w", key, err)
	}
	return nil
}

// formValue renders a scalar as text; composite values are sent as JSON.
func formValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// asPayload converts structs to a field map through their JSON form.
func asPayload(payload any) (Payload, error) {
	if p, ok := payload.(Payload); ok {
		return p, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("request body must be an object for form encodings: %w", err)
	}
	return p, nil
}
