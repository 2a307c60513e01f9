// Package session holds client-side session markers and the logout flow
// that clears them.
//
// A Manager owns any number of Stores. Logout clears every store and then
// redirects to the root path. Manager.OnUnauthorized adapts the flow to the
// 401 callback of phantom bindings.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultRootPath is where Logout redirects when RootPath is empty.
const DefaultRootPath = "/"

// TokenKey is the store key of the bearer token.
const TokenKey = "token"

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("session key not found")

// Store is a key/value holder of session markers.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
}

// Manager clears session stores and redirects.
type Manager struct {
	Stores []Store
	// Redirect receives the root path once the stores are cleared.
	Redirect func(path string)
	RootPath string
	Logger   *slog.Logger
}

// Logout clears every store, then redirects. A store that fails to clear
// does not stop the others or the redirect; the failures are joined.
func (m *Manager) Logout(ctx context.Context) error {
	var errs []error
	for i, s := range m.Stores {
		if err := s.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear session store %d: %w", i, err))
		}
	}

	root := m.RootPath
	if root == "" {
		root = DefaultRootPath
	}
	if m.Redirect != nil {
		m.Redirect(root)
	}
	return errors.Join(errs...)
}

// LogoutRedirect is an alias of Logout.
func (m *Manager) LogoutRedirect(ctx context.Context) error {
	return m.Logout(ctx)
}

// OnUnauthorized returns a callback for phantom.Config.OnUnauthorized that
// logs the user out. Failures are logged, not returned.
func (m *Manager) OnUnauthorized(ctx context.Context) func() {
	return func() {
		if err := m.Logout(ctx); err != nil {
			m.logger().Warn("logout after unauthorized response failed", "error", err)
		}
	}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
