// Package buffer provides a thread-safe growable element buffer used as the
// push substrate for streaming pipelines.
//
// A Buffer is written by one side (Add) and drained by the other (Next).
// Elements are delivered in the exact order they were added. When the buffer
// is empty, Next blocks until an element arrives or the buffer is closed.
//
// Two shutdown paths are supported:
//
//   - CloseWrite: graceful end of stream. Pending elements remain readable;
//     once drained, Next returns ErrIteratorDone.
//   - CloseWithError: immediate failure. Pending elements are dropped and all
//     blocked readers are released with the given error.
package buffer
