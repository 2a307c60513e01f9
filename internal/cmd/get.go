package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/internal/cache"
)

func newGetCmd() *cobra.Command {
	var (
		params   []string
		include  bool
		cacheTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "get <route>",
		Short: "Fetch a resource",
		Long:  "Send a GET request to <base-url>/<route> and print the JSON response.",
		Example: `  phantom get drivers
  phantom get drivers -p status=active -p page=2
  phantom get drivers/7 --jq '.name'`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}
			query, err := parseKeyValues(params, "--param")
			if err != nil {
				return err
			}

			fetchOnMount := false
			opts := phantom.GetOptions[any]{
				Route:        normalizeRoute(args[0]),
				Params:       query,
				Request:      client.request(nil),
				FetchOnMount: &fetchOnMount,
			}
			if cacheTTL > 0 {
				dir, err := cache.DefaultDir()
				if err != nil {
					return err
				}
				opts.Transport = cache.Transport(phantom.NewRestyTransport(nil), cache.NewStore(dir, cacheTTL))
			}

			binding := phantom.Get(cmd.Context(), opts)
			binding.Fetch(cmd.Context())

			st := binding.State()
			if err := client.authErr(); err != nil {
				return err
			}
			if st.Err != nil {
				return st.Err
			}
			if include {
				writeResponseHead(statusOut(cmd), st.Raw)
			}
			return printJSON(cmd, st.Data)
		}),
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVarP(&include, "include", "i", false, "Print the response status and headers to stderr")
	cmd.Flags().DurationVar(&cacheTTL, "cache", 0, "Serve from and store in the response cache for this long (e.g., 5m)")
	return cmd
}

// writeResponseHead prints the status line and sorted headers of resp.
func writeResponseHead(w io.Writer, resp *phantom.Response) {
	if resp == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "HTTP %d (%s)\n", resp.StatusCode, resp.Duration.Round(1e6))
	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s: %s\n", name, strings.Join(resp.Header[name], ", "))
	}
	_, _ = fmt.Fprintln(w)
}
