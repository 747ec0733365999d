package chatx

import (
	"context"
	"errors"
	"sync"
)

// ErrAborted marks a completion that was cancelled through a CancelToken.
// Callers can branch on cancellation vs failure with errors.Is.
var ErrAborted = errors.New("chatx: aborted")

// IsAbort reports whether err originates from a cancelled token.
func IsAbort(err error) bool {
	return errors.Is(err, ErrAborted)
}

// CancelToken is a single-fire abort flag shared between the party issuing a
// completion and the completion itself. Abort may be called at most
// effectively once; later calls are no-ops. Adapters observe the token either
// by polling Aborted or by selecting on Done.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

// NewCancelToken creates a token in the non-aborted state.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Abort signals the token. Safe to call concurrently and repeatedly.
func (t *CancelToken) Abort() {
	t.once.Do(func() { close(t.done) })
}

// Aborted reports whether the token has been signalled.
func (t *CancelToken) Aborted() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the token is aborted.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

// Bind derives a context that is cancelled when either parent is done or the
// token is aborted. The returned cancel func must be called to release the
// watcher goroutine once the bound work finishes.
//
// Bind is the bridge for adapters that speak context.Context rather than
// CancelToken: signalling the token cancels every context bound to it.
func (t *CancelToken) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
