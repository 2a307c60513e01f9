package phantom

import (
	"context"
	"log/slog"
	"net/http"
)

// DeleteOptions configures a DELETE binding.
type DeleteOptions[R any] struct {
	BaseURL        string
	Route          string
	ID             string
	Token          string
	OnUnauthorized func()
	InitialState   R
	Headers        map[string]string
	Request        RequestOptions
	GetLatestData  string
	Transport      Transport
	Logger         *slog.Logger
}

// DeleteRequest carries per-call overrides of a delete.
type DeleteRequest struct {
	// ID replaces DeleteOptions.ID for this call.
	ID string
	// Body is sent as the JSON request body when non-nil.
	Body any
}

// DeleteBinding deletes resources.
type DeleteBinding[R any] struct {
	*mutation[R]
}

// Delete creates a DELETE binding.
func Delete[R any](ctx context.Context, opts DeleteOptions[R]) *DeleteBinding[R] {
	cfg := mutationConfig[R]{
		method:         http.MethodDelete,
		baseURL:        opts.BaseURL,
		route:          opts.Route,
		id:             opts.ID,
		token:          opts.Token,
		onUnauthorized: opts.OnUnauthorized,
		headers:        opts.Headers,
		request:        opts.Request,
		getLatestData:  opts.GetLatestData,
		transport:      opts.Transport,
		logger:         opts.Logger,
	}
	return &DeleteBinding[R]{newMutation(ctx, cfg, opts.InitialState)}
}

// Delete sends the request to Route, or Route/ID when an ID is set on req
// or the options. req may be nil. The outcome is only observable through
// State and Subscribe.
func (b *DeleteBinding[R]) Delete(ctx context.Context, req *DeleteRequest) {
	var (
		id   string
		body any
	)
	if req != nil {
		id = req.ID
		body = req.Body
	}
	_, _ = b.trigger(ctx, id, body, false)
}
