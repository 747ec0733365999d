package chatx

import (
	"errors"

	"github.com/lumivox/chatkit/pkg/buffer"
)

// ErrDone is returned by Stream.Next when the stream has completed
// gracefully.
var ErrDone = errors.New("chatx: done")

// Stream is a push-based sequence of values. Next blocks until the next value
// is available; it returns ErrDone after graceful completion, or the failure
// error the stream was closed with.
//
// Close releases the stream from the consumer side. CloseWithError fails the
// stream, releasing any blocked consumer with err.
type Stream[T any] interface {
	Next() (T, error)
	Close() error
	CloseWithError(err error) error
}

// StreamBuilder is the producer side of a Stream. A producer adds values with
// Add and finishes with exactly one of Done or Abort. The consumer side is
// obtained from Stream.
type StreamBuilder[T any] struct {
	rb *buffer.Buffer[T]
}

// NewStreamBuilder creates a StreamBuilder with the given initial buffer
// capacity.
func NewStreamBuilder[T any](size int) *StreamBuilder[T] {
	return &StreamBuilder[T]{rb: buffer.N[T](size)}
}

// Add pushes a value to the stream. It fails once the stream has been
// finished or torn down.
func (sb *StreamBuilder[T]) Add(v T) error {
	return sb.rb.Add(v)
}

// Done completes the stream gracefully. Buffered values remain readable;
// after the last one, Next returns ErrDone.
func (sb *StreamBuilder[T]) Done() error {
	return sb.rb.CloseWrite()
}

// Abort fails the stream with err. Blocked and future Next calls return err.
func (sb *StreamBuilder[T]) Abort(err error) error {
	return sb.rb.CloseWithError(err)
}

// Stream returns the consumer view of the builder.
func (sb *StreamBuilder[T]) Stream() Stream[T] {
	return (*builderStream[T])(sb)
}

type builderStream[T any] struct {
	rb *buffer.Buffer[T]
}

func (s *builderStream[T]) Next() (T, error) {
	v, err := s.rb.Next()
	if errors.Is(err, buffer.ErrIteratorDone) {
		var zero T
		return zero, ErrDone
	}
	return v, err
}

func (s *builderStream[T]) Close() error {
	return s.rb.Close()
}

func (s *builderStream[T]) CloseWithError(err error) error {
	return s.rb.CloseWithError(err)
}

// Drain consumes str until completion and returns every value received.
// A graceful end returns the collected values and a nil error.
func Drain[T any](str Stream[T]) ([]T, error) {
	var out []T
	for {
		v, err := str.Next()
		if err != nil {
			if errors.Is(err, ErrDone) {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}
