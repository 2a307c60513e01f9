// Package update checks GitHub for a newer CLI release.
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/phantom-go/phantom"
)

const (
	// DefaultReleasesURL is the GitHub endpoint of the latest release.
	DefaultReleasesURL = "https://api.github.com/repos/phantom-go/phantom/releases/latest"
	CheckTimeout       = 5 * time.Second
)

// ReleasesURL can be overridden in tests.
var ReleasesURL = DefaultReleasesURL

// transport is shared by every check; the bearer token of the API being
// called must never reach GitHub, so the check bypasses bindings and their
// global configuration.
var transport phantom.Transport = phantom.NewRestyTransport(nil)

type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateURL       string
	UpdateAvailable bool
}

// CheckForUpdate reports whether a newer version is available. It returns
// nil when the check cannot complete; it never fails the command.
func CheckForUpdate(ctx context.Context, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	resp, err := transport.Do(ctx, &phantom.Request{
		Method: http.MethodGet,
		URL:    ReleasesURL,
		Header: http.Header{"Accept": {"application/vnd.github.v3+json"}},
	})
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}

	var release Release
	if err := json.Unmarshal(resp.Body, &release); err != nil {
		return nil
	}

	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)

	result := &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}
	if semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result
}

func normalizeVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
