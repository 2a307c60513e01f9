// Package cache stores GET responses on disk.
//
// Entries are keyed by URL, query and a hash of the Authorization header,
// so different tokens never share an entry. Disable with PHANTOM_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/phantom-go/phantom"
)

const (
	DefaultTTL = 5 * time.Minute

	// HitHeader is set on responses served from the cache.
	HitHeader = "X-Phantom-Cache"

	filePrefix = "get_"
)

type entry struct {
	CachedAt   time.Time   `json:"cached_at"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body"`
}

// Store reads and writes response entries in one directory.
type Store struct {
	dir string
	ttl time.Duration
}

// NewStore creates a Store in dir. A zero ttl uses DefaultTTL.
func NewStore(dir string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{dir: dir, ttl: ttl}
}

// Key identifies req in the store.
func Key(req *phantom.Request) string {
	h := sha1.New()
	h.Write([]byte(req.Method + " " + req.URL + "\n"))
	for _, k := range slices.Sorted(maps.Keys(req.Query)) {
		h.Write([]byte(k + "=" + req.Query[k] + "\n"))
	}
	h.Write([]byte(req.Header.Get("Authorization")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the fresh response stored under key. Returns false on miss
// (no file, expired, disabled).
func (s *Store) Get(key string) (*phantom.Response, bool) {
	if disabled() {
		return nil, false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if time.Since(e.CachedAt) > s.ttl {
		return nil, false
	}
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(HitHeader, "hit")
	return &phantom.Response{StatusCode: e.StatusCode, Header: header, Body: e.Body}, true
}

// Put stores resp under key. Silently no-ops on error or when disabled.
func (s *Store) Put(key string, resp *phantom.Response) {
	if disabled() || resp == nil {
		return
	}
	data, err := json.Marshal(entry{
		CachedAt:   time.Now(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	})
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}

	// Atomic-ish write: write temp then rename.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, path)
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, filePrefix+key+".json")
}

// Transport serves GET requests from s while fresh and stores successful
// GET responses. Other methods pass through to next.
func Transport(next phantom.Transport, s *Store) phantom.Transport {
	return phantom.TransportFunc(func(ctx context.Context, req *phantom.Request) (*phantom.Response, error) {
		if req.Method != http.MethodGet {
			return next.Do(ctx, req)
		}
		key := Key(req)
		if resp, ok := s.Get(key); ok {
			return resp, nil
		}
		resp, err := next.Do(ctx, req)
		if err == nil {
			s.Put(key, resp)
		}
		return resp, err
	})
}

// ClearAll removes all cache files from dir and returns how many were
// removed. For safety, it only removes files matching the cache filename
// scheme.
func ClearAll(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// DefaultDir returns $PHANTOM_CACHE_DIR, or the platform-appropriate
// cache directory.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("PHANTOM_CACHE_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "phantom"), nil
}

func disabled() bool {
	return os.Getenv("PHANTOM_NO_CACHE") != ""
}

func isCacheFilename(name string) bool {
	// Expected: "get_<40hex>.json"
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return false
	}
	hash, ok := strings.CutPrefix(base, filePrefix)
	return ok && len(hash) == sha1.Size*2 && isHex(hash)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
