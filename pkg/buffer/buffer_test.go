package buffer

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestBuffer_FIFOOrder(t *testing.T) {
	b := N[int](4)
	for i := 0; i < 10; i++ {
		if err := b.Add(i); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	b.CloseWrite()

	for i := 0; i < 10; i++ {
		v, err := b.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if v != i {
			t.Errorf("Next = %d, want %d", v, i)
		}
	}
	if _, err := b.Next(); !errors.Is(err, ErrIteratorDone) {
		t.Errorf("Next after drain = %v, want ErrIteratorDone", err)
	}
}

func TestBuffer_NextBlocksUntilAdd(t *testing.T) {
	b := N[string](1)

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	var gotErr error
	go func() {
		defer wg.Done()
		got, gotErr = b.Next()
	}()

	time.Sleep(10 * time.Millisecond)
	if err := b.Add("hello"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	wg.Wait()

	if gotErr != nil {
		t.Fatalf("Next: %v", gotErr)
	}
	if got != "hello" {
		t.Errorf("Next = %q, want %q", got, "hello")
	}
}

func TestBuffer_CloseWriteUnblocksReader(t *testing.T) {
	b := N[int](1)

	done := make(chan error, 1)
	go func() {
		_, err := b.Next()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.CloseWrite()

	select {
	case err := <-done:
		if !errors.Is(err, ErrIteratorDone) {
			t.Errorf("Next = %v, want ErrIteratorDone", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reader not released by CloseWrite")
	}
}

func TestBuffer_CloseWithError(t *testing.T) {
	b := N[int](1)
	b.Add(1)

	boom := errors.New("boom")
	b.CloseWithError(boom)

	if _, err := b.Next(); !errors.Is(err, boom) {
		t.Errorf("Next = %v, want %v", err, boom)
	}
	if err := b.Add(2); err == nil {
		t.Error("Add after close should fail")
	}
	if err := b.Err(); !errors.Is(err, boom) {
		t.Errorf("Err = %v, want %v", err, boom)
	}

	// First close wins.
	b.CloseWithError(errors.New("other"))
	if err := b.Err(); !errors.Is(err, boom) {
		t.Errorf("Err after second close = %v, want %v", err, boom)
	}
}

func TestBuffer_AddAfterCloseWrite(t *testing.T) {
	b := N[int](1)
	b.CloseWrite()
	if err := b.Add(1); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Add after CloseWrite = %v, want io.ErrClosedPipe", err)
	}
}

func TestBuffer_Len(t *testing.T) {
	b := N[int](2)
	if b.Len() != 0 {
		t.Errorf("Len = %d, want 0", b.Len())
	}
	b.Add(1)
	b.Add(2)
	b.Add(3)
	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}
	b.Next()
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
}
