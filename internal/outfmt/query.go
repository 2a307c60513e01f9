package outfmt

import "github.com/phantom-go/phantom/internal/filter"

// ApplyQuery applies a jq expression to v and returns the filtered value.
// gojq only understands plain JSON values, so v is normalized first.
func ApplyQuery(v any, query string) (any, error) {
	if query == "" {
		return v, nil
	}
	plain, err := toPlain(v)
	if err != nil {
		return nil, err
	}
	return filter.Apply(plain, query)
}
