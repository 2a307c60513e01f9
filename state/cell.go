// Package state provides observable state cells for binding results.
//
// A Cell holds a single value and notifies subscribers after every change.
// Bindings keep their loading/error/data triple in one cell so observers
// never see a torn update.
package state

import (
	"maps"
	"slices"
	"sync"
)

// Cell is a mutex-guarded value with change notification.
// All methods are safe for concurrent use.
//
// Notifications are delivered one at a time, in the order the updates were
// applied, so the last snapshot a subscriber sees is the cell's value.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID int
	subs   map[int]func(T)

	// pending holds snapshots not yet delivered; draining is set while one
	// goroutine delivers them.
	pending  []T
	draining bool
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.Update(func(cur *T) { *cur = v })
}

// Update applies fn to the value under the write lock, then notifies
// subscribers with the resulting value. Subscribers run outside the lock
// and may read or update the cell themselves.
//
// When another goroutine is already delivering notifications, the snapshot
// is queued for it and Update returns without waiting for subscribers.
func (c *Cell[T]) Update(fn func(*T)) T {
	c.mu.Lock()
	fn(&c.value)
	v := c.value
	c.pending = append(c.pending, v)
	if c.draining {
		c.mu.Unlock()
		return v
	}
	c.draining = true
	c.mu.Unlock()

	c.drain()
	return v
}

func (c *Cell[T]) drain() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		next := c.pending[0]
		var zero T
		c.pending[0] = zero
		c.pending = c.pending[1:]
		subs := make([]func(T), 0, len(c.subs))
		for _, id := range slices.Sorted(maps.Keys(c.subs)) {
			subs = append(subs, c.subs[id])
		}
		c.mu.Unlock()

		for _, s := range subs {
			s(next)
		}
	}
}

// Subscribe registers fn to be called after every change.
// The returned function removes the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}
