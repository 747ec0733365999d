package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrIteratorDone is returned by Next when the buffer has been closed for
// writing and every buffered element has been consumed.
var ErrIteratorDone = errors.New("buffer: iterator done")

// Buffer is a thread-safe growable FIFO buffer. Producers append elements with
// Add; consumers drain them one at a time with Next. Next blocks while the
// buffer is empty and the write side is still open.
type Buffer[T any] struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []T
	closeWrite bool
	closeErr   error
}

// N creates a Buffer with an initial capacity of n elements. The capacity is
// only a hint; the buffer grows as needed.
func N[T any](n int) *Buffer[T] {
	b := &Buffer[T]{
		buf: make([]T, 0, n),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Add appends a single element to the buffer and wakes one blocked reader.
//
// Returns an error if the write side has been closed or the buffer has been
// closed with an error.
func (b *Buffer[T]) Add(t T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return fmt.Errorf("buffer: write to closed buffer: %w", b.closeErr)
	}
	if b.closeWrite {
		return fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	b.buf = append(b.buf, t)
	b.cond.Signal()
	return nil
}

// Next removes and returns the oldest buffered element. It blocks until an
// element is available or the buffer is closed.
//
// Returns ErrIteratorDone once the write side is closed and the buffer is
// empty, or the close error if the buffer was closed with CloseWithError.
func (b *Buffer[T]) Next() (t T, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if b.closeErr != nil {
			err = b.closeErr
			return
		}
		if len(b.buf) > 0 {
			t = b.buf[0]
			b.buf = b.buf[1:]
			return
		}
		if b.closeWrite {
			err = ErrIteratorDone
			return
		}
		b.cond.Wait()
	}
}

// CloseWrite closes the write side of the buffer. Buffered elements remain
// readable; once drained, Next returns ErrIteratorDone. Safe to call more
// than once.
func (b *Buffer[T]) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeWrite {
		return nil
	}
	b.closeWrite = true
	b.cond.Broadcast()
	return nil
}

// CloseWithError closes both sides of the buffer. Buffered elements are
// dropped and all blocked readers are released with err. If err is nil,
// io.ErrClosedPipe is used. The first close wins; later calls are no-ops.
func (b *Buffer[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return nil
	}
	b.closeErr = err
	b.closeWrite = true
	b.buf = nil
	b.cond.Broadcast()
	return nil
}

// Close closes the buffer, releasing all blocked operations with
// io.ErrClosedPipe. It implements io.Closer.
func (b *Buffer[T]) Close() error {
	return b.CloseWithError(io.ErrClosedPipe)
}

// Err returns the error the buffer was closed with, or nil if the buffer is
// open or was closed gracefully.
func (b *Buffer[T]) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeErr
}

// Len returns the number of elements currently buffered.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
