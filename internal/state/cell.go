// Package state provides the observable values the client core is built on.
//
// A Cell holds one value and notifies subscribers synchronously after every
// change. A Flash is a boolean cell that lowers itself after a fixed duration.
// Neither type knows anything about how the value is rendered.
package state

import "sync"

// Cell is an observable value. The zero value is not usable; use NewCell.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value and notifies every subscriber, in subscription
// order, with the new value.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	subs := append([]subscriber[T](nil), c.subs...)
	c.mu.Unlock()

	// Subscribers run without the lock held so they may call Get or Set.
	for _, s := range subs {
		s.fn(v)
	}
}

// Update applies fn to the current value and stores the result.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	v := fn(c.value)
	c.value = v
	subs := append([]subscriber[T](nil), c.subs...)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}
