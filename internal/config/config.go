// Package config loads CLI settings.
//
// Sources, lowest precedence first: the TOML file, a .env file in the
// working directory, PHANTOM_* environment variables. Command-line flags are
// applied on top by the caller. The bearer token is never written to the
// file; it lives in the keyring (see OpenKeyringStore) or PHANTOM_TOKEN.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/sahilm/fuzzy"

	"github.com/phantom-go/phantom"
	"github.com/phantom-go/phantom/cloudinary"
	"github.com/phantom-go/phantom/internal/validation"
)

const (
	envPrefix     = "PHANTOM_"
	envConfigPath = "PHANTOM_CONFIG"
	fileName      = "config.toml"
	dotEnvFile    = ".env"
)

var userConfigDir = os.UserConfigDir

// Settings are the persisted CLI defaults.
type Settings struct {
	BaseURL     string            `toml:"base_url,omitempty" env:"BASE_URL"`
	Token       string            `toml:"-" env:"TOKEN"`
	ContentType string            `toml:"content_type,omitempty" env:"CONTENT_TYPE"`
	Timeout     string            `toml:"timeout,omitempty" env:"TIMEOUT"`
	Headers     map[string]string `toml:"headers,omitempty" env:"HEADERS"`
	RedisURL    string            `toml:"redis_url,omitempty" env:"REDIS_URL"`
	Cloudinary  Cloudinary        `toml:"cloudinary,omitempty" envPrefix:"CLOUDINARY_"`
}

// Cloudinary holds the media upload settings.
type Cloudinary struct {
	BaseURL      string `toml:"cloud_base_url,omitempty" env:"BASE_URL"`
	Route        string `toml:"cloud_route,omitempty" env:"ROUTE"`
	UploadPreset string `toml:"upload_preset,omitempty" env:"UPLOAD_PRESET"`
}

// keys lists the names accepted by Set.
var keys = []string{
	"base_url",
	"content_type",
	"timeout",
	"redis_url",
	"cloudinary.cloud_base_url",
	"cloudinary.cloud_route",
	"cloudinary.upload_preset",
	"headers.<name>",
}

// Keys returns the names accepted by Set.
func Keys() []string {
	return slices.Clone(keys)
}

// Path returns the config file path: $PHANTOM_CONFIG, or config.toml in
// the user config directory.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	return filepath.Join(configDir(), fileName)
}

func configDir() string {
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

// Load reads the file at path, then overlays .env and the environment.
// A missing file is not an error.
func Load(path string) (Settings, error) {
	s, err := LoadFile(path)
	if err != nil {
		return Settings{}, err
	}

	// Load never overrides variables already present in the environment.
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	if err := env.ParseWithOptions(&s, env.Options{Prefix: envPrefix}); err != nil {
		return Settings{}, fmt.Errorf("parse environment: %w", err)
	}
	return s, s.Validate()
}

// LoadFile parses the TOML file at path. A missing file yields zero
// settings.
func LoadFile(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path, creating parent directories.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the URLs, content type and timeout values.
func (s Settings) Validate() error {
	if s.BaseURL != "" {
		if err := validation.ValidateBaseURL(s.BaseURL); err != nil {
			return fmt.Errorf("invalid value for base_url: %w", err)
		}
	}
	if s.Cloudinary.BaseURL != "" {
		if err := validation.ValidateBaseURL(s.Cloudinary.BaseURL); err != nil {
			return fmt.Errorf("invalid value for cloudinary.cloud_base_url: %w", err)
		}
	}
	if s.ContentType != "" && !phantom.ContentType(s.ContentType).Valid() {
		return fmt.Errorf("content_type must be one of %s", joinContentTypes())
	}
	if _, err := s.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses Timeout; empty means zero.
func (s Settings) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(s.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("timeout must be a positive duration such as 30s, got %q", s.Timeout)
	}
	return d, nil
}

// CloudinaryOptions returns the upload options, or nil when no upload
// endpoint is configured.
func (s Settings) CloudinaryOptions() *cloudinary.Options {
	if s.Cloudinary.BaseURL == "" {
		return nil
	}
	return &cloudinary.Options{
		CloudBaseURL: s.Cloudinary.BaseURL,
		CloudRoute:   s.Cloudinary.Route,
		UploadPreset: s.Cloudinary.UploadPreset,
	}
}

// Set assigns the setting named key. Unknown keys get a suggestion.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "base_url":
		s.BaseURL = value
	case "content_type":
		s.ContentType = value
	case "timeout":
		s.Timeout = value
	case "redis_url":
		s.RedisURL = value
	case "cloudinary.cloud_base_url":
		s.Cloudinary.BaseURL = value
	case "cloudinary.cloud_route":
		s.Cloudinary.Route = value
	case "cloudinary.upload_preset":
		s.Cloudinary.UploadPreset = value
	default:
		name, ok := strings.CutPrefix(key, "headers.")
		if !ok || name == "" {
			return unknownKeyError(key)
		}
		if s.Headers == nil {
			s.Headers = make(map[string]string)
		}
		if value == "" {
			delete(s.Headers, name)
		} else {
			s.Headers[name] = value
		}
	}
	return s.Validate()
}

func unknownKeyError(key string) error {
	msg := fmt.Sprintf("unknown config key %q", key)
	if matches := fuzzy.Find(key, keys); len(matches) > 0 {
		msg += fmt.Sprintf("\n\nDid you mean %q?", matches[0].Str)
	}
	return errors.New(msg + "\nValid keys: " + strings.Join(keys, ", "))
}

func joinContentTypes() string {
	names := make([]string, 0, len(phantom.ContentTypes))
	for _, ct := range phantom.ContentTypes {
		names = append(names, string(ct))
	}
	return strings.Join(names, ", ")
}
