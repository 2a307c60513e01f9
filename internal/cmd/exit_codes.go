package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/phantom-go/phantom"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if errors.Is(err, errUnauthorized) {
		return exitAuth
	}
	if code := exitCodeFromBinding(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}
	return exitGeneric
}

func exitCodeFromBinding(err error) int {
	switch phantom.KindOf(err) {
	case phantom.KindAuth:
		return exitAuth
	case phantom.KindConfigurationMissing:
		return exitUsage
	case phantom.KindUpload:
		return exitGeneric
	case phantom.KindTransport:
	default:
		return 0
	}

	status := phantom.StatusCode(err)
	switch {
	case status == 0:
		if isNetworkError(err) {
			return exitNetwork
		}
		return exitGeneric
	case status == http.StatusForbidden:
		return exitForbidden
	case status == http.StatusNotFound:
		return exitNotFound
	case status == http.StatusTooManyRequests:
		return exitRateLimited
	case status >= 500:
		return exitServer
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return exitUsage
	default:
		return exitGeneric
	}
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "i/o timeout")
}

// usageIndicators are message fragments of cobra, pflag and local
// validation errors that mean the command line itself was wrong.
var usageIndicators = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"unknown config key",
	"flag needs an argument",
	"accepts ",
	"requires at least",
	"requires exactly",
	"invalid argument",
	"invalid value",
	"invalid field",
	"invalid filter expression",
	"invalid template",
	"must be",
	"is required",
}

func isUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(usageIndicators, func(indicator string) bool {
		return strings.Contains(msg, indicator)
	})
}
