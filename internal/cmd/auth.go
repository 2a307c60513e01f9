package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom/internal/config"
	"github.com/phantom-go/phantom/internal/iocontext"
	"github.com/phantom-go/phantom/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Store the API token",
		Long: `Store the bearer token sent with every request.

The token is saved in the OS keychain and, when redis_url is configured,
in Redis. With no argument or "-", the token is read from stdin.`,
		Example: `  phantom login eyJhbGciOi...
  echo "$API_TOKEN" | phantom login -`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token := ""
			if len(args) == 1 && args[0] != "-" {
				token = args[0]
			} else {
				line, err := bufio.NewReader(iocontext.GetIO(ctx).In).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read token from stdin: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("token is required")
			}

			s, err := loadSettings()
			if err != nil {
				return err
			}
			stores, closeStores, err := s.SessionStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeStores() }()

			for _, store := range stores {
				if err := store.Set(ctx, session.TokenKey, token); err != nil {
					return fmt.Errorf("failed to store token: %w", err)
				}
			}
			_, _ = fmt.Fprintf(statusOut(cmd), "Token stored in %d session store(s)\n", len(stores))
			return nil
		}),
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := loadSettings()
			if err != nil {
				return err
			}
			stores, closeStores, err := s.SessionStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeStores() }()

			m := &session.Manager{
				Stores: stores,
				Redirect: func(string) {
					_, _ = fmt.Fprintln(statusOut(cmd), "Logged out")
				},
			}
			return m.LogoutRedirect(ctx)
		}),
	}
}

// tokenSource reports where the token used by requests comes from.
func tokenSource(cmd *cobra.Command, s config.Settings) string {
	if flags.Token != "" {
		return "flag"
	}
	if s.Token != "" {
		return "environment"
	}
	stores, closeStores, err := s.SessionStores(cmd.Context())
	if err != nil {
		return "none"
	}
	defer func() { _ = closeStores() }()
	if _, err := config.LoadToken(cmd.Context(), stores); err != nil {
		return "none"
	}
	return "session store"
}
