package chatx

import (
	"context"
	"sync"
)

// GenerateTextRequest bundles one non-streaming completion call.
type GenerateTextRequest struct {
	Model LanguageModel

	Request
}

// GenerateText adapts one non-streaming completion call into a lazy stream
// that emits exactly one TextResult and then completes. The model is not
// invoked until the stream is first consumed.
//
// Cancellation follows the StreamText contract: a pre-aborted token fails the
// stream with ErrAborted without invoking the model; a mid-flight abort
// cancels the bound context and fails the stream with ErrAborted.
func GenerateText(ctx context.Context, req GenerateTextRequest) Stream[*TextResult] {
	g := &generateStream{
		ctx:     ctx,
		req:     req,
		builder: NewStreamBuilder[*TextResult](1),
	}
	g.inner = g.builder.Stream()
	return g
}

type generateStream struct {
	ctx context.Context
	req GenerateTextRequest

	start   sync.Once
	builder *StreamBuilder[*TextResult]
	inner   Stream[*TextResult]
}

func (g *generateStream) Next() (*TextResult, error) {
	g.start.Do(func() { go g.run() })
	return g.inner.Next()
}

func (g *generateStream) Close() error {
	return g.inner.Close()
}

func (g *generateStream) CloseWithError(err error) error {
	return g.inner.CloseWithError(err)
}

func (g *generateStream) run() {
	token := g.req.Token
	if token != nil && token.Aborted() {
		g.builder.Abort(ErrAborted)
		return
	}

	ctx := g.ctx
	if token != nil {
		var cancel context.CancelFunc
		ctx, cancel = token.Bind(ctx)
		defer cancel()
	}

	res, err := g.req.Model.DoGenerate(ctx, &g.req.Request)
	if token != nil && token.Aborted() {
		g.builder.Abort(ErrAborted)
		return
	}
	if err != nil {
		g.builder.Abort(err)
		return
	}
	g.builder.Add(res)
	g.builder.Done()
}
