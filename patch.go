package phantom

import (
	"context"
	"net/http"
)

// PatchBinding partially updates resources.
type PatchBinding[R any] struct {
	*mutation[R]
}

// Patch creates a PATCH binding.
func Patch[R any](ctx context.Context, opts WriteOptions[R]) *PatchBinding[R] {
	return &PatchBinding[R]{newMutation(ctx, writeConfig(http.MethodPatch, opts), opts.InitialState)}
}

// Patch sends payload to Route/ID and returns the decoded response.
// Failures are stored in the binding state and also returned.
func (b *PatchBinding[R]) Patch(ctx context.Context, payload any) (R, error) {
	return b.trigger(ctx, "", payload, true)
}
