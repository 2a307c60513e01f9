package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/internal/config"
	"github.com/phantom-go/phantom/internal/debug"
	"github.com/phantom-go/phantom/session"
)

// apiClient is the resolved request configuration of one command. Creating
// it installs the global binding configuration.
type apiClient struct {
	settings     config.Settings
	timeout      time.Duration
	logger       *slog.Logger
	status       io.Writer
	unauthorized atomic.Bool
}

// loadSettings reads the config file, .env and environment, then applies
// the global flags.
func loadSettings() (config.Settings, error) {
	s, err := config.Load(configPath())
	if err != nil {
		return config.Settings{}, err
	}
	if flags.BaseURL != "" {
		s.BaseURL = flags.BaseURL
	}
	if flags.Token != "" {
		s.Token = flags.Token
	}
	return s, nil
}

// newAPIClient resolves settings, the token and headers, and installs them
// with phantom.SetConfig.
func newAPIClient(cmd *cobra.Command) (*apiClient, error) {
	ctx := cmd.Context()
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return nil, phantom.ErrMissingBaseURL
	}

	timeout := flags.Timeout
	if timeout == 0 {
		if timeout, err = s.TimeoutDuration(); err != nil {
			return nil, err
		}
	}

	headers := maps.Clone(s.Headers)
	extra, err := parseKeyValues(flags.Headers, "--header")
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		if headers == nil {
			headers = make(map[string]string, len(extra))
		}
		maps.Copy(headers, extra)
	}

	c := &apiClient{settings: s, timeout: timeout, logger: slog.New(slog.DiscardHandler), status: statusOut(cmd)}
	if debug.IsEnabled(ctx) {
		c.logger = slog.Default()
	}

	token := s.Token
	if token == "" {
		token = c.storedToken(ctx)
	}

	phantom.SetConfig(phantom.Config{
		BaseURL:        normalizeBaseURL(s.BaseURL),
		Token:          token,
		OnUnauthorized: c.onUnauthorized(ctx),
		Headers:        headers,
		ContentType:    phantom.ContentType(s.ContentType),
		Cloudinary:     s.CloudinaryOptions(),
		Logger:         c.logger,
	})
	return c, nil
}

// storedToken reads the token saved by login. Commands still run without
// one; the API decides whether it is needed.
func (c *apiClient) storedToken(ctx context.Context) string {
	stores, closeStores, err := c.settings.SessionStores(ctx)
	if err != nil {
		c.logger.Debug("session stores unavailable", "error", err)
		return ""
	}
	defer func() { _ = closeStores() }()

	token, err := config.LoadToken(ctx, stores)
	if err != nil {
		c.logger.Debug("no stored token", "error", err)
		return ""
	}
	return token
}

// onUnauthorized records the rejection and, with --logout-on-401, clears
// the stored session.
func (c *apiClient) onUnauthorized(ctx context.Context) func() {
	return func() {
		c.unauthorized.Store(true)
		if !flags.LogoutOnUnauthorized {
			return
		}
		stores, closeStores, err := c.settings.SessionStores(ctx)
		if err != nil {
			c.logger.Warn("cannot clear session", "error", err)
			return
		}
		defer func() { _ = closeStores() }()

		m := &session.Manager{
			Stores: stores,
			Redirect: func(string) {
				_, _ = fmt.Fprintln(c.status, "Stored token cleared; run 'phantom login' to sign in again")
			},
			Logger: c.logger,
		}
		m.OnUnauthorized(ctx)()
	}
}

// request returns the per-binding transport overrides.
func (c *apiClient) request(query map[string]string) phantom.RequestOptions {
	return phantom.RequestOptions{Timeout: c.timeout, Query: query}
}

// authErr converts a rejection reported through the unauthorized callback
// into an error.
func (c *apiClient) authErr() error {
	if c.unauthorized.Load() {
		return errUnauthorized
	}
	return nil
}
