package state

import (
	"reflect"
	"sync"
)

// Watcher tracks a dependency snapshot and reports when it changes.
// It stands in for an effect's dependency list: callers pass the current
// dependencies and re-run their effect when Observe returns true.
type Watcher[K any] struct {
	mu     sync.Mutex
	last   K
	primed bool
}

// NewWatcher creates a watcher primed with the initial dependencies.
func NewWatcher[K any](initial K) *Watcher[K] {
	return &Watcher[K]{last: initial, primed: true}
}

// Observe records deps and reports whether they differ from the previous
// snapshot. The first call on an unprimed watcher always reports a change.
func (w *Watcher[K]) Observe(deps K) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.primed && reflect.DeepEqual(w.last, deps) {
		return false
	}
	w.last = deps
	w.primed = true
	return true
}
