package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/cloudinary"
)

// errUnauthorized is returned when a read was rejected with 401. Reads
// report the rejection through the unauthorized callback, not an error.
var errUnauthorized = errors.New("authentication failed (status 401)")

// errAlreadyHandled marks errors whose message was already printed to
// stderr by RunE.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

// RunE wraps a command function: failures are printed with suggestions and
// returned as a handledError carrying the exit code.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

// HandleError formats err with suggestions for the user.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *phantom.APIError
	var uploadErr *cloudinary.UploadError

	switch {
	case errors.Is(err, errUnauthorized), phantom.IsAuth(err):
		msg.WriteString("Authentication failed.\n\n")
		msg.WriteString(suggestionsForStatusCode(http.StatusUnauthorized, ""))

	case errors.Is(err, phantom.ErrMissingBaseURL), phantom.KindOf(err) == phantom.KindConfigurationMissing:
		msg.WriteString("No base URL configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: phantom config set base_url https://api.example.com/\n")
		msg.WriteString("  - Or pass --base-url, or set PHANTOM_BASE_URL\n")

	case errors.As(err, &uploadErr):
		fmt.Fprintf(&msg, "Media upload failed (HTTP %d): %s\n\n", uploadErr.StatusCode, uploadErr.Body)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check cloudinary.cloud_base_url and cloudinary.upload_preset\n")
		msg.WriteString("  - Run: phantom config show\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErr.Body)
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode, apiErr.Body))
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check that the API server is running\n")
		msg.WriteString("  - Verify the base URL: phantom config show\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the base URL spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int, body string) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request fields\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")
		if strings.Contains(body, "required") {
			suggestions.WriteString("  - A required field may be missing\n")
		}

	case 401:
		suggestions.WriteString("  - Your token may be invalid or expired\n")
		suggestions.WriteString("  - Run: phantom login --token <token>\n")

	case 403:
		suggestions.WriteString("  - You don't have permission for this action\n")

	case 404:
		suggestions.WriteString("  - The resource doesn't exist\n")
		suggestions.WriteString("  - Check the route and ID\n")

	case 422:
		suggestions.WriteString("  - Validation failed\n")
		suggestions.WriteString("  - Check your input values\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}
