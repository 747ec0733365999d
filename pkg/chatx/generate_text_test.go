package chatx

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGenerateText_SingleValueThenDone(t *testing.T) {
	want := &TextResult{
		Text:         "hello",
		Usage:        Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
		FinishReason: "stop",
	}
	model := &fakeModel{result: want}

	strm := GenerateText(context.Background(), GenerateTextRequest{
		Model:   model,
		Request: Request{Messages: []*Message{{Role: RoleUser, Content: "hi"}}},
	})

	got, err := strm.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != want {
		t.Errorf("Next = %+v, want %+v", got, want)
	}
	if _, err := strm.Next(); !errors.Is(err, ErrDone) {
		t.Errorf("second Next = %v, want ErrDone", err)
	}
	if n := model.generateCalls.Load(); n != 1 {
		t.Errorf("DoGenerate invoked %d times, want 1", n)
	}
}

func TestGenerateText_LazyUntilConsumed(t *testing.T) {
	model := &fakeModel{result: &TextResult{Text: "x"}}
	strm := GenerateText(context.Background(), GenerateTextRequest{
		Model:   model,
		Request: Request{Messages: []*Message{{Role: RoleUser, Content: "hi"}}},
	})

	time.Sleep(20 * time.Millisecond)
	if n := model.generateCalls.Load(); n != 0 {
		t.Fatalf("DoGenerate invoked %d times before any consumer", n)
	}
	if _, err := strm.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
}

func TestGenerateText_PreAbortedToken(t *testing.T) {
	model := &fakeModel{result: &TextResult{Text: "x"}}
	tok := NewCancelToken()
	tok.Abort()

	strm := GenerateText(context.Background(), GenerateTextRequest{
		Model: model,
		Request: Request{
			Messages: []*Message{{Role: RoleUser, Content: "hi"}},
			Token:    tok,
		},
	})

	if _, err := strm.Next(); !IsAbort(err) {
		t.Errorf("Next = %v, want abort error", err)
	}
	if n := model.generateCalls.Load(); n != 0 {
		t.Errorf("DoGenerate invoked %d times with pre-aborted token, want 0", n)
	}
}

func TestGenerateText_ModelErrorPassesThrough(t *testing.T) {
	boom := errors.New("generate failed")
	model := &fakeModel{generateErr: boom}

	strm := GenerateText(context.Background(), GenerateTextRequest{
		Model:   model,
		Request: Request{Messages: []*Message{{Role: RoleUser, Content: "hi"}}},
	})

	if _, err := strm.Next(); !errors.Is(err, boom) {
		t.Errorf("Next = %v, want %v", err, boom)
	}
}
