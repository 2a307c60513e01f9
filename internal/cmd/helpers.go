package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom/internal/iocontext"
	"github.com/phantom-go/phantom/internal/outfmt"
)

// printJSON writes v to stdout, shaped by --jq, --template and --compact.
func printJSON(cmd *cobra.Command, v any) error {
	ctx := cmd.Context()
	return outfmt.Write(iocontext.GetIO(ctx).Out, v, outfmt.FromContext(ctx))
}

// statusOut is where progress and confirmations go; --silent discards them.
func statusOut(cmd *cobra.Command) io.Writer {
	if flags.Silent {
		return io.Discard
	}
	return iocontext.GetIO(cmd.Context()).ErrOut
}

// parseKeyValues parses repeated key=value flag values.
func parseKeyValues(values []string, flagName string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, kv := range values {
		key, value, err := parseField(kv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", flagName, err)
		}
		out[key] = value
	}
	return out, nil
}

// buildRequestBody merges --data, --input and field flags into one object.
// Later sources override earlier ones. Returns nil when nothing was given.
func buildRequestBody(cmd *cobra.Command, fields, rawFields []string, inputFile, jsonBody string) (map[string]any, error) {
	body := make(map[string]any)

	if jsonBody != "" {
		if err := json.Unmarshal([]byte(jsonBody), &body); err != nil {
			return nil, fmt.Errorf("failed to parse --data JSON: %w", err)
		}
	}

	if inputFile != "" {
		var (
			inputData []byte
			err       error
		)
		if inputFile == "-" {
			inputData, err = io.ReadAll(iocontext.GetIO(cmd.Context()).In)
		} else {
			inputData, err = os.ReadFile(inputFile)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if err := json.Unmarshal(inputData, &body); err != nil {
			return nil, fmt.Errorf("failed to parse input JSON: %w", err)
		}
	}

	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	for _, field := range rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// parseField parses key=value with a string value.
func parseField(field string) (string, string, error) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return strings.TrimSpace(key), value, nil
}

// parseRawField parses key=value with a JSON value.
func parseRawField(field string) (string, any, error) {
	key, raw, err := parseField(field)
	if err != nil {
		return "", nil, err
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid JSON in raw field %q: %w", key, err)
	}
	return key, value, nil
}

// normalizeBaseURL ensures the base URL ends with "/", since bindings join
// it with the route by concatenation.
func normalizeBaseURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// normalizeRoute strips the leading slash of a route.
func normalizeRoute(route string) string {
	return strings.TrimLeft(strings.TrimSpace(route), "/")
}
