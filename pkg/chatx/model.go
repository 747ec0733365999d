package chatx

import (
	"context"

	"github.com/goccy/go-yaml"
)

// Usage reports token accounting for one completion. TotalTokens is supplied
// by the adapter and is not recomputed or validated here.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

func (u Usage) String() string {
	b, _ := yaml.Marshal(map[string]map[string]any{
		"Usage": {
			"Prompt":     u.PromptTokens,
			"Completion": u.CompletionTokens,
			"Total":      u.TotalTokens,
		},
	})
	return string(b)
}

// TextResult is the outcome of one non-streaming completion.
type TextResult struct {
	Text         string
	Usage        Usage
	FinishReason string
}

// EventType tags the variants of Event.
type EventType int

const (
	// EventTextDelta carries one incremental text fragment.
	EventTextDelta EventType = iota
	// EventFinish carries the final text, usage and finish reason.
	EventFinish
	// EventError carries a provider-side error surfaced as an in-band event.
	EventError
)

// Event is one element of a streaming completion. Exactly the fields implied
// by Type are populated.
type Event struct {
	Type EventType

	TextDelta string

	Text         string
	Usage        Usage
	FinishReason string

	Err error
}

// Request is the bundle forwarded to a LanguageModel call. Optional sampling
// fields use pointers so that only explicitly-set values are forwarded and
// adapter-side defaults stay in effect for the rest.
type Request struct {
	Messages []*Message

	System        string
	Temperature   *float32
	MaxTokens     *int
	TopP          *float32
	TopK          *int
	StopSequences []string

	Token *CancelToken
}

// LanguageModel is the rich completion capability plugged in by the caller.
// Implementations live outside this package (provider SDK bindings, test
// fakes).
type LanguageModel interface {
	ModelID() string

	// DoGenerate performs one non-streaming completion.
	DoGenerate(ctx context.Context, req *Request) (*TextResult, error)

	// DoStream performs one streaming completion. The returned stream ends
	// with ErrDone on success; provider failures surface through the stream's
	// error channel.
	DoStream(ctx context.Context, req *Request) (Stream[*Event], error)
}

// Chunk is one element produced by the low-level Adapter path: a text
// fragment plus an optional done flag that finalizes the completion without
// waiting for the stream to end.
type Chunk struct {
	Content string
	Done    bool
}

// AdapterRequest is the input to the low-level Adapter capability.
type AdapterRequest struct {
	Messages []*Message
	Token    *CancelToken
}

// Adapter is the minimal chunk-based completion capability. It receives the
// session history and a cancellation token and returns a stream of chunks.
type Adapter interface {
	Complete(ctx context.Context, req *AdapterRequest) (Stream[Chunk], error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, req *AdapterRequest) (Stream[Chunk], error)

func (f AdapterFunc) Complete(ctx context.Context, req *AdapterRequest) (Stream[Chunk], error) {
	return f(ctx, req)
}
