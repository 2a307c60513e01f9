package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/internal/debug"
	"github.com/phantom-go/phantom/internal/dryrun"
	"github.com/phantom-go/phantom/internal/filter"
	"github.com/phantom-go/phantom/internal/iocontext"
	"github.com/phantom-go/phantom/internal/outfmt"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	BaseURL    string
	Token      string
	ConfigPath string
	Headers    []string
	Debug      bool
	JQ         string
	Template   string
	Compact    bool
	Silent     bool
	Timeout    time.Duration

	DryRun               bool
	LogoutOnUnauthorized bool
}

// flags holds the global command flags. It is reset at the start of every
// Execute call; code reading it outside a command's RunE sees stale data.
var flags rootFlags

// Execute runs the root command. Output goes to the streams carried by ctx
// (see iocontext), or the process streams.
func Execute(ctx context.Context, args []string) error {
	flags = rootFlags{}
	phantom.ResetConfig()

	root := &cobra.Command{
		Use:   "phantom",
		Short: "Call REST APIs with bearer auth, form encodings and media uploads",
		Long: `phantom sends GET, POST, PUT, PATCH and DELETE requests to a configured API.

The base URL, default headers, content type and upload settings come from
the config file (phantom config path), a .env file, PHANTOM_* environment
variables and flags, in increasing precedence. The token is stored with
'phantom login'.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError provides did-you-mean
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			streams := iocontext.GetIO(ctx)
			ctx = iocontext.WithIO(ctx, streams)
			cmd.SetOut(streams.Out)
			cmd.SetErr(streams.ErrOut)

			debug.SetupLogger(streams.ErrOut, flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			if err := filter.Validate(flags.JQ); err != nil {
				return err
			}
			if err := outfmt.ValidateTemplate(flags.Template); err != nil {
				return err
			}
			ctx = outfmt.WithOptions(ctx, outfmt.Options{
				Query:    flags.JQ,
				Template: flags.Template,
				Compact:  flags.Compact,
			})
			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	streams := iocontext.GetIO(ctx)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.BaseURL, "base-url", "", "API base URL (env PHANTOM_BASE_URL)")
	pf.StringVar(&flags.Token, "token", "", "Bearer token; overrides the stored token (env PHANTOM_TOKEN)")
	pf.StringVar(&flags.ConfigPath, "config", "", "Config file path (env PHANTOM_CONFIG)")
	pf.StringArrayVarP(&flags.Headers, "header", "H", nil, "Extra request header as key=value (repeatable)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.JQ, "jq", "", "jq expression applied to the JSON output")
	pf.StringVar(&flags.Template, "template", "", "Go template applied to the output, e.g. '{{.id}}'")
	pf.BoolVar(&flags.Compact, "compact", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Silent, "silent", false, "Suppress non-error output to stderr")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "Request timeout (e.g., 30s, 2m)")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Print POST, PUT, PATCH and DELETE requests instead of sending them; GET still runs")
	pf.BoolVar(&flags.LogoutOnUnauthorized, "logout-on-401", false, "Clear the stored token when the API answers 401")

	root.AddCommand(newGetCmd())
	root.AddCommand(newWriteCmd(writePost))
	root.AddCommand(newWriteCmd(writePut))
	root.AddCommand(newWriteCmd(writePatch))
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown
// command and flag errors.
func enhanceUnknownError(err error, root, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			var names []string
			for _, c := range root.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		cmd := root
		if targetCmd != nil {
			cmd = targetCmd
		}
		seen := make(map[string]bool)
		var names []string
		add := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if name := "--" + f.Name; !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			})
		}
		add(cmd.Flags())
		add(cmd.InheritedFlags())

		helpCmd := strings.TrimSpace(cmd.CommandPath()) + " --help"
		if suggestion := suggestFlag(unknown, names); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name such as "--foo" from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexAny(rest, " \t\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
