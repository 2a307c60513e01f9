// Package phantom provides data-fetching bindings for GET, POST, PUT, PATCH
// and DELETE requests with observable request state.
//
// Each binding owns a small state triple (data, error, loading) that callers
// read with State or observe with Subscribe. Write bindings can upload tagged
// media fields before sending the request and refresh a related resource
// after a successful write (see WriteOptions.GetLatestData).
//
// Process-wide defaults such as the base URL and bearer token are set once
// with SetConfig; every binding merges them with its own options, and the
// binding's options win.
//
//	phantom.SetConfig(phantom.Config{BaseURL: "https://api.example.com/", Token: token})
//
//	drivers := phantom.Get[[]Driver](ctx, phantom.GetOptions[[]Driver]{Route: "drivers"})
//	drivers.Subscribe(func(s phantom.GetState[[]Driver]) { render(s) })
//
//	update := phantom.Patch[Driver](ctx, phantom.WriteOptions[Driver]{
//		Route:         "driver/update",
//		ID:            id,
//		GetLatestData: "drivers",
//	})
//	if _, err := update.Patch(ctx, phantom.Payload{"name": name}); err != nil {
//		// local handling
//	}
package phantom
