// Package validation checks URLs read from settings and flags.
//
// API and upload endpoints may be local (development servers are the norm),
// but cloud metadata endpoints are always rejected so a misconfigured base
// URL cannot send the bearer token to them.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateBaseURL checks an endpoint URL. It must:
//   - use the http or https scheme
//   - contain a hostname
//   - carry no credentials, query or fragment
//   - not target a cloud metadata endpoint
func ValidateBaseURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", parsedURL.Scheme)
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if parsedURL.User != nil {
		return fmt.Errorf("URL must not contain credentials; use 'phantom login' for the token")
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("URL must not contain a query or fragment")
	}

	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if ip := net.ParseIP(hostname); ip != nil && ip.IsUnspecified() {
		return fmt.Errorf("unspecified IP addresses are not allowed")
	}
	return nil
}

// isCloudMetadata checks for cloud metadata endpoints
func isCloudMetadata(hostname string) bool {
	lowercase := strings.ToLower(hostname)
	cloudMetadataEndpoints := []string{
		"169.254.169.254",          // AWS, Azure, GCP, DigitalOcean
		"metadata.google.internal", // GCP
		"metadata",                 // Generic
		"instance-data",            // AWS
		"fd00:ec2::254",            // AWS IPv6
	}

	for _, endpoint := range cloudMetadataEndpoints {
		if lowercase == endpoint {
			return true
		}
	}
	return strings.HasSuffix(lowercase, ".metadata.google.internal")
}
