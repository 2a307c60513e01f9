package phantom

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phantom-go/phantom/cloudinary"
)

// uploadMarker is the flag key of an untyped tagged upload field.
const uploadMarker = "CloudinaryImage"

// Uploader stores a media value remotely and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, value any, opts *cloudinary.Options) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, value any, opts *cloudinary.Options) (string, error)

func (f UploaderFunc) Upload(ctx context.Context, value any, opts *cloudinary.Options) (string, error) {
	return f(ctx, value, opts)
}

// CloudinaryImage marks a payload field for upload. When the binding has
// upload options, the field is replaced by the uploaded URL; otherwise it is
// sent as {"CloudinaryImage": true, "value": ...}.
type CloudinaryImage struct {
	Value any
}

func (c CloudinaryImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{uploadMarker: true, "value": c.Value})
}

// ProcessPayload replaces every tagged upload field of payload with the URL
// returned by uploader. Without opts the payload is returned unchanged.
//
// Uploads run concurrently. The first failure cancels the remaining uploads
// and no replacement is kept; payload itself is never modified.
func ProcessPayload(ctx context.Context, payload Payload, opts *cloudinary.Options, uploader Uploader) (Payload, error) {
	if opts == nil || len(payload) == 0 {
		return payload, nil
	}

	out := maps.Clone(payload)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for key, field := range payload {
		value, ok := taggedValue(field)
		if !ok {
			continue
		}
		g.Go(func() error {
			url, err := uploader.Upload(gctx, value, opts)
			if err != nil {
				return fmt.Errorf("failed to upload field %s: %w", key, err)
			}
			mu.Lock()
			out[key] = url
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// taggedValue returns the value of a tagged upload field. A field is tagged
// when it carries a truthy marker flag and a truthy value.
func taggedValue(field any) (any, bool) {
	switch f := field.(type) {
	case CloudinaryImage:
		return f.Value, truthy(f.Value)
	case *CloudinaryImage:
		if f == nil {
			return nil, false
		}
		return f.Value, truthy(f.Value)
	case map[string]any:
		if !truthy(f[uploadMarker]) {
			return nil, false
		}
		value := f["value"]
		return value, truthy(value)
	}
	return nil, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case []byte:
		return x != nil
	}
	return true
}
