package phantom

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/phantom-go/phantom/state"
)

// GetOptions configures a read binding.
type GetOptions[T any] struct {
	BaseURL        string
	Route          string
	Token          string
	OnUnauthorized func()
	InitialState   T
	Params         map[string]string
	Headers        map[string]string
	Request        RequestOptions
	// FetchOnMount starts a fetch as soon as the binding is created.
	// Nil means true.
	FetchOnMount *bool
	// AsyncAwait is accepted for compatibility; both execution styles behave
	// identically.
	AsyncAwait *bool
	Transport  Transport
	Logger     *slog.Logger
}

// GetState is the observable state of a read binding.
type GetState[T any] struct {
	Data    T
	Raw     *Response
	Err     error
	Loading bool
}

// getDeps are the options whose change triggers a refetch.
type getDeps struct {
	BaseURL string
	Route   string
	Token   string
	Params  map[string]string
	Headers map[string]string
	Request RequestOptions
}

// GetBinding fetches a resource and exposes the result as GetState.
type GetBinding[T any] struct {
	ctx    context.Context
	cell   *state.Cell[GetState[T]]
	deps   *state.Watcher[getDeps]
	logger *slog.Logger
	fetches inflight

	mu   sync.RWMutex
	opts GetOptions[T]
}

// Get creates a read binding. ctx bounds the background fetches started by
// the binding (on mount, Refetch and option changes).
func Get[T any](ctx context.Context, opts GetOptions[T]) *GetBinding[T] {
	opts = resolveGetOptions(opts)
	mount := opts.FetchOnMount == nil || *opts.FetchOnMount

	b := &GetBinding[T]{
		ctx:    ctx,
		cell:   state.NewCell(GetState[T]{Data: opts.InitialState, Loading: mount}),
		deps:   state.NewWatcher(opts.deps()),
		logger: bindingLogger(opts.Logger, http.MethodGet),
		opts:   opts,
	}
	if mount {
		b.Refetch()
	}
	return b
}

func resolveGetOptions[T any](opts GetOptions[T]) GetOptions[T] {
	cfg := GetConfig()
	opts.BaseURL = firstNonEmpty(opts.BaseURL, cfg.BaseURL)
	opts.Token = firstNonEmpty(opts.Token, cfg.Token)
	if opts.OnUnauthorized == nil {
		opts.OnUnauthorized = cfg.OnUnauthorized
	}
	if opts.OnUnauthorized == nil {
		opts.OnUnauthorized = noop
	}
	if opts.Headers == nil {
		opts.Headers = cfg.Headers
	}
	if opts.Transport == nil {
		opts.Transport = cfg.Transport
	}
	if opts.Transport == nil {
		opts.Transport = sharedTransport()
	}
	if opts.Logger == nil {
		opts.Logger = cfg.Logger
	}
	return opts
}

func (o GetOptions[T]) deps() getDeps {
	return getDeps{
		BaseURL: o.BaseURL,
		Route:   o.Route,
		Token:   o.Token,
		Params:  o.Params,
		Headers: o.Headers,
		Request: o.Request,
	}
}

// State returns the current state.
func (b *GetBinding[T]) State() GetState[T] {
	return b.cell.Get()
}

// Subscribe calls fn after every state change until the returned function
// is called.
func (b *GetBinding[T]) Subscribe(fn func(GetState[T])) func() {
	return b.cell.Subscribe(fn)
}

// Refetch starts a new fetch in the background. Every call starts its own
// request; concurrent fetches are not coalesced and the last to settle wins.
func (b *GetBinding[T]) Refetch() {
	b.fetches.add()
	go func() {
		defer b.fetches.done()
		b.Fetch(b.ctx)
	}()
}

// Fetch runs one fetch cycle on the calling goroutine.
func (b *GetBinding[T]) Fetch(ctx context.Context) {
	opts := b.options()
	url := opts.BaseURL + opts.Route

	b.cell.Update(func(s *GetState[T]) { s.Loading = true })

	if opts.BaseURL == "" {
		b.logger.Error("base URL is required", "route", opts.Route)
		err := &Error{Kind: KindConfigurationMissing, Method: http.MethodGet, URL: url, Err: ErrMissingBaseURL}
		b.cell.Update(func(s *GetState[T]) {
			s.Err = err
			s.Loading = false
		})
		return
	}

	resp, err := execute(ctx, opts.Transport, call{
		method:  http.MethodGet,
		url:     url,
		header:  BuildHeaders(opts.Token, opts.Headers, ""),
		query:   opts.Params,
		request: opts.Request,
	})
	var data T
	if err == nil {
		data, err = decode[T](http.MethodGet, url, resp)
	}

	switch {
	case err == nil:
		b.cell.Update(func(s *GetState[T]) {
			s.Data = data
			s.Raw = resp
			s.Err = nil
			s.Loading = false
		})
	case IsAuth(err):
		opts.OnUnauthorized()
		b.cell.Update(func(s *GetState[T]) { s.Loading = false })
	default:
		b.logger.Error("error fetching data", "route", opts.Route, "error", err)
		b.cell.Update(func(s *GetState[T]) {
			s.Err = err
			s.Loading = false
		})
	}
}

// SetOptions replaces the binding options. When the base URL, route,
// token, params, headers or request overrides changed, a refetch starts.
func (b *GetBinding[T]) SetOptions(opts GetOptions[T]) {
	opts = resolveGetOptions(opts)
	b.mu.Lock()
	b.opts = opts
	b.mu.Unlock()

	if b.deps.Observe(opts.deps()) {
		b.Refetch()
	}
}

// Wait blocks until no background fetch is running. Fetches started while
// Wait blocks are waited for too.
func (b *GetBinding[T]) Wait() {
	b.fetches.wait()
}

// inflight counts running fetches. Unlike sync.WaitGroup, add may be called
// while wait blocks.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (f *inflight) add() {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.n--
	if f.n == 0 && f.idle != nil {
		close(f.idle)
		f.idle = nil
	}
	f.mu.Unlock()
}

func (f *inflight) wait() {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return
	}
	if f.idle == nil {
		f.idle = make(chan struct{})
	}
	idle := f.idle
	f.mu.Unlock()
	<-idle
}

func (b *GetBinding[T]) options() GetOptions[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opts
}
