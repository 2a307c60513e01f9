package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/internal/dryrun"
	"github.com/phantom-go/phantom/internal/iocontext"
)

func newDeleteCmd() *cobra.Command {
	var (
		ids         []string
		jsonBody    string
		latest      string
		concurrency int64
	)

	cmd := &cobra.Command{
		Use:   "delete <route>",
		Short: "Delete one or more resources",
		Long: `Send a DELETE request to <base-url>/<route>/<id> for every --id, or to
<base-url>/<route> when no ID is given. Several IDs are deleted concurrently.`,
		Example: `  phantom delete drivers --id 7
  phantom delete drivers --id 7 --id 8 --id 9 --concurrency 2
  phantom delete drivers/bulk -d '{"ids":[7,8]}'`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}
			body, err := buildRequestBody(cmd, nil, nil, "", jsonBody)
			if err != nil {
				return err
			}
			var payload any
			if body != nil {
				payload = body
			}

			var transport phantom.Transport
			dryRun := dryrun.IsEnabled(cmd.Context())
			if dryRun {
				transport = dryrun.Transport(iocontext.GetIO(cmd.Context()).Out)
			}

			route := normalizeRoute(args[0])
			deleteOne := func(ctx context.Context, id string) (phantom.WriteState[any], error) {
				b := phantom.Delete(ctx, phantom.DeleteOptions[any]{
					Route:         route,
					Request:       client.request(nil),
					GetLatestData: normalizeRoute(latest),
					Transport:     transport,
				})
				defer b.Close()
				b.Delete(ctx, &phantom.DeleteRequest{ID: id, Body: payload})
				b.Wait()
				st := b.State()
				return st, st.Err
			}

			if len(ids) <= 1 {
				var id string
				if len(ids) == 1 {
					id = ids[0]
				}
				st, err := deleteOne(cmd.Context(), id)
				if err != nil || dryRun {
					return err
				}
				if latest != "" {
					return printJSON(cmd, latestResult{Response: st.Response, LatestData: st.LatestData})
				}
				return printJSON(cmd, st.Response)
			}

			results := runBulkOperation(cmd.Context(), ids, concurrency, statusOut(cmd),
				func(ctx context.Context, id string) (any, error) {
					st, err := deleteOne(ctx, id)
					return st.Response, err
				})
			success, failure := countResults(results)
			if dryRun {
				return nil
			}
			if err := printJSON(cmd, results); err != nil {
				return err
			}
			if failure > 0 {
				return fmt.Errorf("deleted %d of %d resources: %w", success, len(results), firstFailure(results))
			}
			return nil
		}),
	}

	cmd.Flags().StringArrayVar(&ids, "id", nil, "Resource ID appended to the route (repeatable)")
	cmd.Flags().StringVarP(&jsonBody, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&latest, "latest", "", "Route fetched after a successful delete and printed as latest_data")
	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Maximum concurrent deletes")
	return cmd
}
