package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage CLI settings",
		Long: `Read and write the settings file.

Environment variables (PHANTOM_BASE_URL, PHANTOM_CONTENT_TYPE, ...) and
a .env file in the working directory override the file.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

// configView is the JSON shape of config show.
type configView struct {
	Path        string            `json:"path"`
	BaseURL     string            `json:"base_url"`
	ContentType string            `json:"content_type,omitempty"`
	Timeout     string            `json:"timeout,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RedisURL    string            `json:"redis_url,omitempty"`
	Cloudinary  *cloudinaryView   `json:"cloudinary,omitempty"`
	TokenSource string            `json:"token_source"`
}

type cloudinaryView struct {
	BaseURL      string `json:"cloud_base_url"`
	Route        string `json:"cloud_route,omitempty"`
	UploadPreset string `json:"upload_preset,omitempty"`
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			view := configView{
				Path:        configPath(),
				BaseURL:     s.BaseURL,
				ContentType: s.ContentType,
				Timeout:     s.Timeout,
				Headers:     s.Headers,
				RedisURL:    s.RedisURL,
				TokenSource: tokenSource(cmd, s),
			}
			if s.Cloudinary != (config.Cloudinary{}) {
				view.Cloudinary = &cloudinaryView{
					BaseURL:      s.Cloudinary.BaseURL,
					Route:        s.Cloudinary.Route,
					UploadPreset: s.Cloudinary.UploadPreset,
				}
			}
			return printJSON(cmd, view)
		}),
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting in the config file",
		Long: "Set a setting in the config file. An empty value for headers.<name> removes the header.\n\nKeys: " +
			strings.Join(config.Keys(), ", "),
		Example: `  phantom config set base_url https://api.example.com/
  phantom config set headers.X-Tenant acme
  phantom config set cloudinary.upload_preset avatars`,
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path := configPath()
			// Only the file is edited; environment overrides are not persisted.
			s, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(path, s); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(statusOut(cmd), "Set %s in %s\n", args[0], path)
			return nil
		}),
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}

func configPath() string {
	if flags.ConfigPath != "" {
		return flags.ConfigPath
	}
	return config.Path()
}
