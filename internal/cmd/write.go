package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/cloudinary"
	"github.com/phantom-go/phantom/internal/dryrun"
	"github.com/phantom-go/phantom/internal/iocontext"
)

// writeMethod describes one of the post, put and patch commands.
type writeMethod struct {
	name  string
	short string
	// send runs the request on a binding built from opts.
	send func(ctx context.Context, opts phantom.WriteOptions[any], payload any) phantom.WriteState[any]
}

var (
	writePost = writeMethod{
		name:  "post",
		short: "Create a resource",
		send: func(ctx context.Context, opts phantom.WriteOptions[any], payload any) phantom.WriteState[any] {
			b := phantom.Post(ctx, opts)
			defer b.Close()
			_, _ = b.Post(ctx, payload)
			b.Wait()
			return b.State()
		},
	}
	writePut = writeMethod{
		name:  "put",
		short: "Replace a resource",
		send: func(ctx context.Context, opts phantom.WriteOptions[any], payload any) phantom.WriteState[any] {
			b := phantom.Put(ctx, opts)
			defer b.Close()
			b.Put(ctx, payload)
			b.Wait()
			return b.State()
		},
	}
	writePatch = writeMethod{
		name:  "patch",
		short: "Update part of a resource",
		send: func(ctx context.Context, opts phantom.WriteOptions[any], payload any) phantom.WriteState[any] {
			b := phantom.Patch(ctx, opts)
			defer b.Close()
			_, _ = b.Patch(ctx, payload)
			b.Wait()
			return b.State()
		},
	}
)

// latestResult is printed when --latest is set.
type latestResult struct {
	Response   any `json:"response"`
	LatestData any `json:"latest_data"`
}

func newWriteCmd(m writeMethod) *cobra.Command {
	var (
		id          string
		fields      []string
		rawFields   []string
		uploads     []string
		jsonBody    string
		inputFile   string
		contentType string
		latest      string
		include     bool
	)

	cmd := &cobra.Command{
		Use:   m.name + " <route>",
		Short: m.short,
		Long: fmt.Sprintf(`Send a %s request to <base-url>/<route>[/<id>].

The body is built from --data, --input and field flags, in that order.
Fields given with --upload are uploaded to the configured Cloudinary
endpoint first and replaced by the hosted URL.`, strings.ToUpper(m.name)),
		Example: fmt.Sprintf(`  phantom %[1]s drivers -f name=Ann -F active=true
  phantom %[1]s drivers --id 7 -d '{"name":"Ann"}' --latest drivers
  phantom %[1]s drivers --upload avatar=./ann.png --content-type multipart/form-data`, m.name),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if contentType != "" && !phantom.ContentType(contentType).Valid() {
				return fmt.Errorf("--content-type must be one of %s", contentTypeNames())
			}
			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}

			body, err := buildRequestBody(cmd, fields, rawFields, inputFile, jsonBody)
			if err != nil {
				return err
			}
			if len(uploads) > 0 {
				if client.settings.CloudinaryOptions() == nil {
					return errors.New("--upload requires cloudinary.cloud_base_url to be configured")
				}
				files, closeFiles, err := openUploads(uploads)
				if err != nil {
					return err
				}
				defer closeFiles()
				if body == nil {
					body = make(map[string]any, len(files))
				}
				for field, file := range files {
					body[field] = phantom.CloudinaryImage{Value: file}
				}
			}

			// An empty body is sent as no body, not as JSON null.
			var payload any
			if body != nil {
				payload = phantom.Payload(body)
			}

			opts := phantom.WriteOptions[any]{
				Route:         normalizeRoute(args[0]),
				ID:            id,
				ContentType:   phantom.ContentType(contentType),
				Request:       client.request(nil),
				GetLatestData: normalizeRoute(latest),
			}
			dryRun := dryrun.IsEnabled(cmd.Context())
			if dryRun {
				out := iocontext.GetIO(cmd.Context()).Out
				opts.Transport = dryrun.Transport(out)
				opts.Uploader = dryrun.Uploader(out)
			}

			st := m.send(cmd.Context(), opts, payload)
			if st.Err != nil {
				return st.Err
			}
			if dryRun {
				return nil
			}
			if include {
				writeResponseHead(statusOut(cmd), st.Raw)
			}
			if latest != "" {
				return printJSON(cmd, latestResult{Response: st.Response, LatestData: st.LatestData})
			}
			return printJSON(cmd, st.Response)
		}),
	}

	cmd.Flags().StringVar(&id, "id", "", "Resource ID appended to the route")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "String field as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&rawFields, "raw-field", "F", nil, "JSON field as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&uploads, "upload", nil, "Upload a file and send its URL as field=path (repeatable)")
	cmd.Flags().StringVarP(&jsonBody, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&inputFile, "input", "", "Read the JSON body from a file (- for stdin)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Body encoding: "+contentTypeNames())
	cmd.Flags().StringVar(&latest, "latest", "", "Route fetched after a successful write and printed as latest_data")
	cmd.Flags().BoolVarP(&include, "include", "i", false, "Print the response status and headers to stderr")
	return cmd
}

// openUploads opens every field=path upload. The returned function closes
// the files.
func openUploads(specs []string) (map[string]cloudinary.File, func(), error) {
	files := make(map[string]cloudinary.File, len(specs))
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, spec := range specs {
		field, path, err := parseField(spec)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("--upload: %w", err)
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open upload %s: %w", path, err)
		}
		opened = append(opened, f)
		files[field] = cloudinary.File{Name: filepath.Base(path), Reader: f}
	}
	return files, closeAll, nil
}

func contentTypeNames() string {
	names := make([]string, 0, len(phantom.ContentTypes))
	for _, ct := range phantom.ContentTypes {
		names = append(names, string(ct))
	}
	return strings.Join(names, ", ")
}
