package phantom

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/phantom-go/phantom/cloudinary"
	"github.com/phantom-go/phantom/state"
)

// WriteOptions configures a POST, PUT or PATCH binding.
type WriteOptions[R any] struct {
	BaseURL string
	Route   string
	// ID is appended to Route as "/<ID>" when set.
	ID             string
	Token          string
	OnUnauthorized func()
	InitialState   R
	Headers        map[string]string
	// ContentType defaults to ContentTypeJSON.
	ContentType ContentType
	Request     RequestOptions
	// Cloudinary enables upload of CloudinaryImage fields.
	Cloudinary *cloudinary.Options
	Uploader   Uploader
	// GetLatestData is a route fetched after every successful write; its
	// result is exposed as WriteState.LatestData.
	GetLatestData string
	Transport     Transport
	Logger        *slog.Logger
}

// WriteState is the observable state of a write or delete binding.
type WriteState[R any] struct {
	Response R
	Raw      *Response
	Err      error
	Loading  bool
	// LatestData settles after Response, once the latest-data fetch returns.
	LatestData R
}

// mutationConfig is the resolved configuration shared by write and delete
// bindings.
type mutationConfig[R any] struct {
	method         string
	baseURL        string
	route          string
	id             string
	token          string
	onUnauthorized func()
	headers        map[string]string
	contentType    ContentType
	request        RequestOptions
	cloudinary     *cloudinary.Options
	uploader       Uploader
	getLatestData  string
	transport      Transport
	logger         *slog.Logger
}

// mutation runs the write lifecycle and owns the nested latest-data
// binding.
type mutation[R any] struct {
	cfg        mutationConfig[R]
	cell       *state.Cell[WriteState[R]]
	latest     *GetBinding[R]
	stopLatest func()
	logger     *slog.Logger
}

func newMutation[R any](ctx context.Context, cfg mutationConfig[R], initial R) *mutation[R] {
	gc := GetConfig()
	cfg.baseURL = firstNonEmpty(cfg.baseURL, gc.BaseURL)
	cfg.token = firstNonEmpty(cfg.token, gc.Token)
	if cfg.onUnauthorized == nil {
		cfg.onUnauthorized = gc.OnUnauthorized
	}
	if cfg.onUnauthorized == nil {
		cfg.onUnauthorized = noop
	}
	if cfg.headers == nil {
		cfg.headers = gc.Headers
	}
	// DELETE bodies are always JSON and carry no declared content type.
	if cfg.method != http.MethodDelete {
		cfg.contentType = ContentType(firstNonEmpty(string(cfg.contentType), string(gc.ContentType), string(ContentTypeJSON)))
	}
	if cfg.cloudinary == nil {
		cfg.cloudinary = gc.Cloudinary
	}
	if cfg.uploader == nil {
		cfg.uploader = gc.Uploader
	}
	if cfg.uploader == nil {
		cfg.uploader = sharedUploader()
	}
	if cfg.transport == nil {
		cfg.transport = gc.Transport
	}
	if cfg.transport == nil {
		cfg.transport = sharedTransport()
	}
	if cfg.logger == nil {
		cfg.logger = gc.Logger
	}

	fetchOnMount := false
	m := &mutation[R]{
		cfg:  cfg,
		cell: state.NewCell(WriteState[R]{Response: initial}),
		latest: Get(ctx, GetOptions[R]{
			BaseURL:      cfg.baseURL,
			Route:        cfg.getLatestData,
			Token:        cfg.token,
			FetchOnMount: &fetchOnMount,
			Transport:    cfg.transport,
			Logger:       cfg.logger,
		}),
		logger: bindingLogger(cfg.logger, cfg.method),
	}
	m.stopLatest = m.latest.Subscribe(m.syncLatest)
	return m
}

// syncLatest copies the nested binding's settled data into LatestData. It
// reads the binding's current state rather than the notified snapshot, so a
// late notification never restores an older result.
func (m *mutation[R]) syncLatest(GetState[R]) {
	s := m.latest.State()
	if s.Loading || s.Err != nil || isZero(s.Data) {
		return
	}
	m.cell.Update(func(ws *WriteState[R]) { ws.LatestData = s.Data })
}

// State returns the current state.
func (m *mutation[R]) State() WriteState[R] {
	return m.cell.Get()
}

// Subscribe calls fn after every state change until the returned function
// is called.
func (m *mutation[R]) Subscribe(fn func(WriteState[R])) func() {
	return m.cell.Subscribe(fn)
}

// Wait blocks until the latest-data fetches started by this binding have
// settled.
func (m *mutation[R]) Wait() {
	m.latest.Wait()
}

// Close stops copying latest-data results into the binding state.
func (m *mutation[R]) Close() {
	m.stopLatest()
}

// trigger runs one request. id overrides the configured ID when non-empty;
// upload enables payload pre-processing.
func (m *mutation[R]) trigger(ctx context.Context, id string, payload any, upload bool) (R, error) {
	var zero R
	cfg := m.cfg
	if cfg.baseURL == "" {
		m.logger.Error("base URL is required", "route", cfg.route)
		return zero, ErrMissingBaseURL
	}

	if id == "" {
		id = cfg.id
	}
	route := cfg.route
	if id != "" {
		route += "/" + id
	}
	url := cfg.baseURL + route
	header := BuildHeaders(cfg.token, cfg.headers, cfg.contentType)

	m.cell.Update(func(s *WriteState[R]) { s.Loading = true })

	body := payload
	if p, ok := payload.(Payload); ok && upload {
		processed, err := ProcessPayload(ctx, p, cfg.cloudinary, cfg.uploader)
		if err != nil {
			err = &Error{Kind: KindUpload, Method: cfg.method, URL: url, Err: err}
			m.fail(route, err)
			return zero, err
		}
		body = processed
	}

	resp, err := execute(ctx, cfg.transport, call{
		method:      cfg.method,
		url:         url,
		header:      header,
		body:        body,
		contentType: cfg.contentType,
		request:     cfg.request,
	})
	var data R
	if err == nil {
		data, err = decode[R](cfg.method, url, resp)
	}
	if err != nil {
		m.fail(route, err)
		return zero, err
	}

	m.cell.Update(func(s *WriteState[R]) {
		s.Response = data
		s.Raw = resp
		s.Err = nil
		s.Loading = false
	})
	if cfg.getLatestData != "" {
		m.latest.Refetch()
	}
	return data, nil
}

func (m *mutation[R]) fail(route string, err error) {
	if IsAuth(err) {
		m.cell.Update(func(s *WriteState[R]) {
			s.Err = err
			s.Loading = false
		})
		m.cfg.onUnauthorized()
		return
	}
	m.logger.Error("request failed", "route", route, "error", err)
	m.cell.Update(func(s *WriteState[R]) {
		s.Err = err
		s.Loading = false
	})
}

var (
	defaultUploaderOnce sync.Once
	defaultUploader     Uploader
)

func sharedUploader() Uploader {
	defaultUploaderOnce.Do(func() {
		defaultUploader = cloudinary.New()
	})
	return defaultUploader
}
