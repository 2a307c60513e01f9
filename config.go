package phantom

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/phantom-go/phantom/cloudinary"
)

// Config holds process-wide binding defaults.
type Config struct {
	BaseURL        string
	Token          string
	OnUnauthorized func()
	// Headers replaces, never extends, the headers of an earlier SetConfig.
	Headers     map[string]string
	ContentType ContentType
	Transport   Transport
	Uploader    Uploader
	Cloudinary  *cloudinary.Options
	Logger      *slog.Logger
	// Extra carries application-defined settings; keys merge individually.
	Extra map[string]any
}

var (
	globalMu sync.RWMutex
	global   Config
)

// SetConfig merges the non-zero fields of partial into the global
// configuration. Later calls overwrite colliding fields.
func SetConfig(partial Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = mergeConfig(global, partial)
}

// GetConfig returns a copy of the global configuration.
func GetConfig() Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	cfg := global
	cfg.Headers = maps.Clone(global.Headers)
	cfg.Extra = maps.Clone(global.Extra)
	return cfg
}

// ResetConfig clears the global configuration.
func ResetConfig() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = Config{}
}

func mergeConfig(base, over Config) Config {
	out := base
	if over.BaseURL != "" {
		out.BaseURL = over.BaseURL
	}
	if over.Token != "" {
		out.Token = over.Token
	}
	if over.OnUnauthorized != nil {
		out.OnUnauthorized = over.OnUnauthorized
	}
	if over.Headers != nil {
		out.Headers = maps.Clone(over.Headers)
	}
	if over.ContentType != "" {
		out.ContentType = over.ContentType
	}
	if over.Transport != nil {
		out.Transport = over.Transport
	}
	if over.Uploader != nil {
		out.Uploader = over.Uploader
	}
	if over.Cloudinary != nil {
		out.Cloudinary = over.Cloudinary
	}
	if over.Logger != nil {
		out.Logger = over.Logger
	}
	if len(over.Extra) > 0 {
		extra := maps.Clone(base.Extra)
		if extra == nil {
			extra = make(map[string]any, len(over.Extra))
		}
		maps.Copy(extra, over.Extra)
		out.Extra = extra
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func noop() {}
