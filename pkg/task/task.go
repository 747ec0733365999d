// Package task provides a switch-latest lifecycle manager for one
// asynchronous request at a time.
//
// A Task runs at most one request; starting a new run cancels and supersedes
// any run still in flight, and callbacks from superseded runs can no longer
// touch the task's state. Progress is observed through a replay-latest
// snapshot stream rather than returned values, so consumers always see a
// coherent status/value/error triple.
package task

import (
	"context"
	"errors"
	"sync"

	"github.com/lumivox/chatkit/pkg/state"
)

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Status is the lifecycle state of a Task.
type Status string

// Snapshot is a coherent view of a Task: its status, the value of the last
// successful run and the error of the last failed one.
type Snapshot[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Task manages one asynchronous request at a time. All methods are safe for
// concurrent use.
type Task[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool

	v *state.Var[Snapshot[T]]
}

// New creates an idle Task.
func New[T any]() *Task[T] {
	return &Task[T]{
		v: state.New(Snapshot[T]{Status: StatusIdle}),
	}
}

// Run starts fn on its own goroutine, cancelling and superseding any run
// still in flight. fn must honor ctx cancellation to release promptly; a
// superseded or cancelled run can no longer affect the task's state either
// way.
func (t *Task[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.supersedeLocked()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	gen := t.gen

	var zero T
	t.v.Set(Snapshot[T]{Status: StatusRunning, Value: zero})

	go func() {
		val, err := fn(ctx)
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen != gen || t.closed {
			return
		}
		t.supersedeLocked()
		switch {
		case err == nil:
			t.v.Set(Snapshot[T]{Status: StatusDone, Value: val})
		case errors.Is(err, context.Canceled):
			t.v.Set(Snapshot[T]{Status: StatusCancelled})
		default:
			t.v.Set(Snapshot[T]{Status: StatusError, Err: err})
		}
	}()
}

// Cancel aborts the run in flight, if any, and moves the task to cancelled.
// Safe to call when idle.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.supersedeLocked()
	if t.v.Get().Status == StatusRunning {
		t.v.Set(Snapshot[T]{Status: StatusCancelled})
	}
}

// Snapshot returns the current snapshot synchronously.
func (t *Task[T]) Snapshot() Snapshot[T] {
	return t.v.Get()
}

// Watch returns a replay-latest watcher over the task's snapshots.
func (t *Task[T]) Watch() *state.Watcher[Snapshot[T]] {
	return t.v.Watch()
}

// Close cancels any run in flight and completes all watchers. Idempotent.
func (t *Task[T]) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.supersedeLocked()
	t.closed = true
	t.mu.Unlock()
	t.v.Close()
}

func (t *Task[T]) supersedeLocked() {
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}
