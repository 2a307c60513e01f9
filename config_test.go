package phantom

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phantom-go/phantom/cloudinary"
)

func TestSetConfigMerges(t *testing.T) {
	resetConfig(t)

	SetConfig(Config{BaseURL: "https://one.test/", Token: "t1", Extra: map[string]any{"a": 1}})
	SetConfig(Config{Token: "t2", Extra: map[string]any{"b": 2}})

	cfg := GetConfig()
	assert.Equal(t, "https://one.test/", cfg.BaseURL)
	assert.Equal(t, "t2", cfg.Token)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, cfg.Extra)
}

func TestSetConfigReplacesHeadersShallowly(t *testing.T) {
	resetConfig(t)

	SetConfig(Config{Headers: map[string]string{"X-One": "1", "X-Two": "2"}})
	SetConfig(Config{Headers: map[string]string{"X-Three": "3"}})

	assert.Equal(t, map[string]string{"X-Three": "3"}, GetConfig().Headers)
}

func TestGetConfigReturnsCopy(t *testing.T) {
	resetConfig(t)

	SetConfig(Config{Headers: map[string]string{"X-One": "1"}})
	cfg := GetConfig()
	cfg.Headers["X-One"] = "changed"

	assert.Equal(t, "1", GetConfig().Headers["X-One"])
}

func TestResetConfig(t *testing.T) {
	SetConfig(Config{BaseURL: "https://one.test/", Cloudinary: &cloudinary.Options{CloudBaseURL: "c"}})
	ResetConfig()

	cfg := GetConfig()
	assert.Empty(t, cfg.BaseURL)
	assert.Nil(t, cfg.Cloudinary)
}

func TestBindingOptionsOverrideConfig(t *testing.T) {
	resetConfig(t)

	global := &fakeTransport{handler: respondWith(200, `{}`)}
	local := &fakeTransport{handler: respondWith(200, `{}`)}
	SetConfig(Config{BaseURL: "https://global.test/", Token: "global", Transport: global, Logger: quietLogger()})

	b := Get(t.Context(), GetOptions[map[string]any]{
		Route:     "items",
		Token:     "local",
		Transport: local,
	})
	b.Wait()

	assert.Empty(t, global.Calls())
	calls := local.Calls()
	if assert.Len(t, calls, 1) {
		assert.Equal(t, "https://global.test/items", calls[0].URL)
		assert.Equal(t, "Bearer local", calls[0].Header.Get("Authorization"))
	}
}
