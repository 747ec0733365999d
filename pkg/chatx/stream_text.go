package chatx

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// StreamTextRequest bundles one streaming completion call.
type StreamTextRequest struct {
	Model LanguageModel

	Request

	// OnFinish, when set, is invoked synchronously exactly once if the
	// upstream emits a finish event.
	OnFinish func(*FinishResult)
}

// FinishResult packages the finish event of a streaming completion together
// with a copy of the request messages.
type FinishResult struct {
	Text         string
	Usage        Usage
	FinishReason string
	Messages     []*Message
}

// TextStream is the result of StreamText: three derived streams over a single
// shared upstream subscription. The upstream DoStream call is made lazily, at
// most once, when the first consumer pulls from any derived stream.
type TextStream struct {
	ctx context.Context
	req StreamTextRequest

	start sync.Once

	events *StreamBuilder[*Event]
	deltas *StreamBuilder[string]
	accum  *StreamBuilder[string]
}

// StreamText adapts one streaming completion call into a TextStream. The
// model is not invoked until a derived stream is first consumed.
func StreamText(ctx context.Context, req StreamTextRequest) *TextStream {
	return &TextStream{
		ctx:    ctx,
		req:    req,
		events: NewStreamBuilder[*Event](16),
		deltas: NewStreamBuilder[string](16),
		accum:  NewStreamBuilder[string](16),
	}
}

// Events returns every upstream event in emission order.
func (ts *TextStream) Events() Stream[*Event] {
	return &lazyStream[*Event]{ts: ts, inner: ts.events.Stream()}
}

// TextDeltas returns only the text fragments of delta events, in order.
func (ts *TextStream) TextDeltas() Stream[string] {
	return &lazyStream[string]{ts: ts, inner: ts.deltas.Stream()}
}

// AccumulatedText emits the running concatenation of all deltas seen so far,
// once per delta. The first emission equals the first delta alone.
func (ts *TextStream) AccumulatedText() Stream[string] {
	return &lazyStream[string]{ts: ts, inner: ts.accum.Stream()}
}

type lazyStream[T any] struct {
	ts    *TextStream
	inner Stream[T]
}

func (ls *lazyStream[T]) Next() (T, error) {
	ls.ts.start.Do(func() { go ls.ts.run() })
	return ls.inner.Next()
}

func (ls *lazyStream[T]) Close() error {
	return ls.inner.Close()
}

func (ls *lazyStream[T]) CloseWithError(err error) error {
	return ls.inner.CloseWithError(err)
}

func (ts *TextStream) failAll(err error) {
	ts.events.Abort(err)
	ts.deltas.Abort(err)
	ts.accum.Abort(err)
}

func (ts *TextStream) doneAll() {
	ts.events.Done()
	ts.deltas.Done()
	ts.accum.Done()
}

func (ts *TextStream) run() {
	token := ts.req.Token
	if token != nil && token.Aborted() {
		ts.failAll(ErrAborted)
		return
	}

	ctx := ts.ctx
	if token != nil {
		var cancel context.CancelFunc
		ctx, cancel = token.Bind(ctx)
		defer cancel()
	}

	up, err := ts.req.Model.DoStream(ctx, &ts.req.Request)
	if err != nil {
		if token != nil && token.Aborted() {
			err = ErrAborted
		}
		ts.failAll(err)
		return
	}

	// Tear the upstream down as soon as the token fires, even if the model
	// implementation ignores it.
	pumpDone := make(chan struct{})
	defer close(pumpDone)
	if token != nil {
		go func() {
			select {
			case <-token.Done():
				up.CloseWithError(ErrAborted)
			case <-pumpDone:
			}
		}()
	}

	var acc strings.Builder
	finished := false
	for {
		ev, err := up.Next()
		if err != nil {
			if errors.Is(err, ErrDone) {
				ts.doneAll()
				return
			}
			if token != nil && token.Aborted() {
				err = ErrAborted
			}
			ts.failAll(err)
			return
		}

		// Add errors mean that particular consumer closed its stream early;
		// the other consumers keep receiving.
		ts.events.Add(ev)
		switch ev.Type {
		case EventTextDelta:
			ts.deltas.Add(ev.TextDelta)
			acc.WriteString(ev.TextDelta)
			ts.accum.Add(acc.String())
		case EventFinish:
			if !finished && ts.req.OnFinish != nil {
				finished = true
				ts.req.OnFinish(&FinishResult{
					Text:         ev.Text,
					Usage:        ev.Usage,
					FinishReason: ev.FinishReason,
					Messages:     cloneMessages(ts.req.Messages),
				})
			}
		}
	}
}
