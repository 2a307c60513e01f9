// Package outfmt renders response data for the terminal.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Options controls how a value is rendered.
type Options struct {
	// Query is a jq expression applied before rendering.
	Query string
	// Template is a Go text/template. When set it replaces JSON output.
	Template string
	// Compact disables indentation.
	Compact bool
}

type optionsKey struct{}

// WithOptions stores output options on the context.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// FromContext returns the output options on ctx, or the zero value.
func FromContext(ctx context.Context) Options {
	if opts, ok := ctx.Value(optionsKey{}).(Options); ok {
		return opts
	}
	return Options{}
}

// Write renders v to w. A query that yields a bare string prints it raw,
// the way jq -r does.
func Write(w io.Writer, v any, opts Options) error {
	if opts.Query != "" {
		filtered, err := ApplyQuery(v, opts.Query)
		if err != nil {
			return err
		}
		v = filtered
		if opts.Template == "" {
			if s, ok := v.(string); ok {
				_, err := fmt.Fprintln(w, s)
				return err
			}
		}
	}
	if opts.Template != "" {
		// Templates index by JSON key, so structs go through a JSON round trip.
		plain, err := toPlain(v)
		if err != nil {
			return err
		}
		return WriteTemplate(w, plain, opts.Template)
	}
	return WriteJSONMaybeCompact(w, v, opts.Compact)
}

// WriteJSONMaybeCompact writes JSON, using compact format if compact is true.
// HTML characters are left unescaped.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// toPlain converts v, including values nested in maps and slices, to the
// types encoding/json decodes into.
func toPlain(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
