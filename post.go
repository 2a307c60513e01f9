package phantom

import (
	"context"
	"net/http"
)

// PostBinding creates resources.
type PostBinding[R any] struct {
	*mutation[R]
}

// Post creates a POST binding.
func Post[R any](ctx context.Context, opts WriteOptions[R]) *PostBinding[R] {
	return &PostBinding[R]{newMutation(ctx, writeConfig(http.MethodPost, opts), opts.InitialState)}
}

// Post sends payload and returns the decoded response. Failures are stored
// in the binding state and also returned.
func (b *PostBinding[R]) Post(ctx context.Context, payload any) (R, error) {
	return b.trigger(ctx, "", payload, true)
}

func writeConfig[R any](method string, opts WriteOptions[R]) mutationConfig[R] {
	return mutationConfig[R]{
		method:         method,
		baseURL:        opts.BaseURL,
		route:          opts.Route,
		id:             opts.ID,
		token:          opts.Token,
		onUnauthorized: opts.OnUnauthorized,
		headers:        opts.Headers,
		contentType:    opts.ContentType,
		request:        opts.Request,
		cloudinary:     opts.Cloudinary,
		uploader:       opts.Uploader,
		getLatestData:  opts.GetLatestData,
		transport:      opts.Transport,
		logger:         opts.Logger,
	}
}
