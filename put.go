package phantom

import (
	"context"
	"net/http"
)

// PutBinding replaces resources.
type PutBinding[R any] struct {
	*mutation[R]
}

// Put creates a PUT binding.
func Put[R any](ctx context.Context, opts WriteOptions[R]) *PutBinding[R] {
	return &PutBinding[R]{newMutation(ctx, writeConfig(http.MethodPut, opts), opts.InitialState)}
}

// Put sends payload to Route/ID. The outcome is only observable through
// State and Subscribe.
func (b *PutBinding[R]) Put(ctx context.Context, payload any) {
	_, _ = b.trigger(ctx, "", payload, true)
}
