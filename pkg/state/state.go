// Package state provides a small observable value container.
//
// A Var holds a current value and fans every accepted update out to its
// watchers. A new watcher immediately receives the current value, then every
// later update, so late subscribers always start from the present state
// rather than replaying history. Vars can be configured with an equality
// function to suppress duplicate emissions.
package state

import (
	"errors"
	"sync"

	"github.com/lumivox/chatkit/pkg/buffer"
)

// ErrDone is returned by Watcher.Next after the Var has been closed and all
// pending values were delivered.
var ErrDone = errors.New("state: done")

// Var is an observable value container. The zero value is not usable; create
// Vars with New, NewDistinct or NewDistinctFunc.
type Var[T any] struct {
	mu       sync.Mutex
	val      T
	eq       func(a, b T) bool
	watchers map[*Watcher[T]]struct{}
	closed   bool
}

// New creates a Var that emits on every Set.
func New[T any](initial T) *Var[T] {
	return &Var[T]{
		val:      initial,
		watchers: make(map[*Watcher[T]]struct{}),
	}
}

// NewDistinct creates a Var that suppresses Sets equal (==) to the current
// value.
func NewDistinct[T comparable](initial T) *Var[T] {
	return NewDistinctFunc(initial, func(a, b T) bool { return a == b })
}

// NewDistinctFunc creates a Var that suppresses Sets for which eq reports the
// new value equal to the current one.
func NewDistinctFunc[T any](initial T, eq func(a, b T) bool) *Var[T] {
	v := New(initial)
	v.eq = eq
	return v
}

// Get returns the current value.
func (v *Var[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set updates the value and notifies all watchers. It reports whether the
// update was emitted; a distinct Var drops updates equal to the current
// value. Set after Close is a no-op.
func (v *Var[T]) Set(val T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	if v.eq != nil && v.eq(v.val, val) {
		return false
	}
	v.val = val
	for w := range v.watchers {
		w.buf.Add(val)
	}
	return true
}

// Watch registers a new watcher. The watcher's first Next returns the current
// value; subsequent Next calls block for later emissions. After Close on the
// Var, Next returns ErrDone once pending values are drained.
func (v *Var[T]) Watch() *Watcher[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	w := &Watcher[T]{v: v, buf: buffer.N[T](4)}
	w.buf.Add(v.val)
	if v.closed {
		w.buf.CloseWrite()
		return w
	}
	v.watchers[w] = struct{}{}
	return w
}

// Close completes every watcher. Each watcher still drains values emitted
// before the close. Idempotent.
func (v *Var[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for w := range v.watchers {
		w.buf.CloseWrite()
	}
	v.watchers = nil
}

// Watcher is one subscription to a Var.
type Watcher[T any] struct {
	v   *Var[T]
	buf *buffer.Buffer[T]
}

// Next blocks until the next value is available. It returns ErrDone after the
// Var is closed and all pending values were delivered, or after the watcher
// itself is closed.
func (w *Watcher[T]) Next() (T, error) {
	val, err := w.buf.Next()
	if err != nil {
		var zero T
		return zero, ErrDone
	}
	return val, nil
}

// Close detaches the watcher from its Var.
func (w *Watcher[T]) Close() error {
	w.v.mu.Lock()
	if w.v.watchers != nil {
		delete(w.v.watchers, w)
	}
	w.v.mu.Unlock()
	w.buf.CloseWrite()
	return nil
}

// Map derives a Var whose value is f of the source's value. The derived Var
// tracks the source until the source closes, at which point the derived Var
// closes too. When eq is non-nil, duplicate projections are suppressed.
func Map[A, B any](src *Var[A], f func(A) B, eq func(a, b B) bool) *Var[B] {
	out := New(f(src.Get()))
	out.eq = eq
	w := src.Watch()
	go func() {
		for {
			v, err := w.Next()
			if err != nil {
				out.Close()
				return
			}
			out.Set(f(v))
		}
	}()
	return out
}
