// Package chatx provides reactive primitives for building chat and text
// completion clients on top of pluggable language model capabilities.
//
// The package is built around a small push-based Stream abstraction backed by
// pkg/buffer. Producers fill a StreamBuilder; consumers drain the Stream view
// until ErrDone (graceful end) or a failure error.
//
// Two completion front-ends adapt a LanguageModel capability into streams:
//
//   - StreamText: one streaming call fanned out into three derived streams
//     (raw events, text deltas, accumulated text) over a single shared
//     upstream subscription.
//   - GenerateText: one non-streaming call as a lazy single-value stream.
//
// The Controller manages a chat session: it owns the message history, drives
// one completion per user message, supports cancel and retry of the last
// request, and exposes hot replay-latest projections of its state. All
// asynchronous failures surface through the session state, never as panics or
// errors thrown from the public operations.
//
// Cancellation is cooperative and dual-path: a CancelToken is signalled for
// cancellation-aware adapters, and the active stream subscription is torn down
// directly so adapters that ignore the token still stop feeding the session.
package chatx
