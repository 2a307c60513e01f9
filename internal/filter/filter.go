// Package filter applies jq expressions to decoded response bodies.
package filter

import (
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// envelopeKeys are the object keys searched when a root-array query runs
// against an object, in order.
var envelopeKeys = []string{"data", "items", "results"}

// NormalizeExpression fixes shell-escaped operators. Zsh escapes ! to \!
// even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Validate reports whether expression parses.
func Validate(expression string) error {
	if expression == "" {
		return nil
	}
	if _, err := gojq.Parse(NormalizeExpression(expression)); err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}
	return nil
}

// Apply runs expression against data. A single result is returned as is;
// several results are returned as a slice. An empty expression returns
// data unchanged.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}

	expression = NormalizeExpression(expression)
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	results, err := runQuery(query, data)
	if err != nil {
		if inner, ok := envelopeFallback(data, expression, err); ok {
			if fallback, fallbackErr := runQuery(query, inner); fallbackErr == nil {
				results, err = fallback, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	iter := query.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

// envelopeFallback returns the array wrapped by a response envelope such as
// {"data": [...]} when a root-array query failed on the envelope itself.
func envelopeFallback(data any, expression string, runErr error) (any, bool) {
	if !looksLikeRootArrayQuery(expression) {
		return nil, false
	}
	if !strings.Contains(runErr.Error(), "expected an object but got: array") &&
		!strings.Contains(runErr.Error(), "cannot iterate over") {
		return nil, false
	}

	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range envelopeKeys {
		if items, ok := m[key].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

func looksLikeRootArrayQuery(expression string) bool {
	expr := strings.TrimSpace(expression)
	return strings.HasPrefix(expr, ".[]") || strings.HasPrefix(expr, "[.[]") || strings.HasPrefix(expr, "(.[]")
}
