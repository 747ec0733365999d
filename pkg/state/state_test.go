package state

import (
	"errors"
	"testing"
	"time"
)

func TestVar_GetSet(t *testing.T) {
	v := New(1)
	if got := v.Get(); got != 1 {
		t.Errorf("Get = %d, want 1", got)
	}
	v.Set(2)
	if got := v.Get(); got != 2 {
		t.Errorf("Get = %d, want 2", got)
	}
}

func TestVar_WatchReplaysLatest(t *testing.T) {
	v := New("a")
	v.Set("b")

	w := v.Watch()
	defer w.Close()
	got, err := w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "b" {
		t.Errorf("replayed value = %q, want %q (latest, not history)", got, "b")
	}
}

func TestVar_WatchReceivesUpdates(t *testing.T) {
	v := New(0)
	w := v.Watch()
	defer w.Close()

	if _, err := w.Next(); err != nil { // initial replay
		t.Fatalf("Next: %v", err)
	}

	v.Set(1)
	v.Set(2)
	for want := 1; want <= 2; want++ {
		got, err := w.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Errorf("Next = %d, want %d", got, want)
		}
	}
}

func TestVar_DistinctSuppressesDuplicates(t *testing.T) {
	v := NewDistinct("x")
	w := v.Watch()
	defer w.Close()
	w.Next() // initial

	if v.Set("x") {
		t.Error("Set of equal value should report not emitted")
	}
	if !v.Set("y") {
		t.Error("Set of new value should report emitted")
	}

	got, err := w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "y" {
		t.Errorf("Next = %q, want %q (duplicate suppressed)", got, "y")
	}
}

func TestVar_CloseCompletesWatchers(t *testing.T) {
	v := New(1)
	w := v.Watch()
	w.Next() // initial

	v.Close()
	v.Close() // idempotent

	if _, err := w.Next(); !errors.Is(err, ErrDone) {
		t.Errorf("Next after Close = %v, want ErrDone", err)
	}
	if v.Set(2) {
		t.Error("Set after Close should be a no-op")
	}
}

func TestVar_WatchAfterClose(t *testing.T) {
	v := New(7)
	v.Close()

	w := v.Watch()
	got, err := w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != 7 {
		t.Errorf("Next = %d, want final value 7", got)
	}
	if _, err := w.Next(); !errors.Is(err, ErrDone) {
		t.Errorf("second Next = %v, want ErrDone", err)
	}
}

func TestMap_ProjectsAndDedupes(t *testing.T) {
	src := New(1)
	even := Map(src, func(n int) bool { return n%2 == 0 }, func(a, b bool) bool { return a == b })

	if even.Get() != false {
		t.Error("initial projection should be false")
	}

	w := even.Watch()
	defer w.Close()
	w.Next() // initial

	src.Set(2)
	got, err := w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != true {
		t.Errorf("Next = %v, want true", got)
	}

	src.Set(4) // projection unchanged, must not re-emit
	src.Set(3)
	got, err = w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != false {
		t.Errorf("Next = %v, want false (the 4 projection was deduped)", got)
	}

	src.Close()
	deadline := time.After(time.Second)
	done := make(chan error, 1)
	go func() {
		_, err := w.Next()
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrDone) {
			t.Errorf("Next after source close = %v, want ErrDone", err)
		}
	case <-deadline:
		t.Fatal("derived var not closed when source closed")
	}
}
