package chatx

import (
	"context"
	"testing"
	"time"
)

func TestCancelToken_AbortOnce(t *testing.T) {
	tok := NewCancelToken()
	if tok.Aborted() {
		t.Fatal("fresh token should not be aborted")
	}
	tok.Abort()
	tok.Abort() // must be safe to repeat
	if !tok.Aborted() {
		t.Fatal("token should be aborted")
	}
	select {
	case <-tok.Done():
	default:
		t.Error("Done channel should be closed after Abort")
	}
}

func TestCancelToken_BindCancelsContext(t *testing.T) {
	tok := NewCancelToken()
	ctx, cancel := tok.Bind(context.Background())
	defer cancel()

	tok.Abort()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context not cancelled by token abort")
	}
}

func TestCancelToken_BindReleasedByCancel(t *testing.T) {
	tok := NewCancelToken()
	ctx, cancel := tok.Bind(context.Background())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context not cancelled by cancel func")
	}
	if tok.Aborted() {
		t.Error("cancelling the bound context must not abort the token")
	}
}

func TestIsAbort(t *testing.T) {
	if !IsAbort(ErrAborted) {
		t.Error("IsAbort(ErrAborted) should be true")
	}
	if IsAbort(context.Canceled) {
		t.Error("IsAbort(context.Canceled) should be false")
	}
}
