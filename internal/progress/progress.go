// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress carries batch progress from the worker goroutine to the
// foreground renderer.
package progress

import (
	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// Sink receives progress updates. Report is called from the worker and must
// not block it.
type Sink interface {
	Report(types.Progress)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(types.Progress)

func (f SinkFunc) Report(p types.Progress) { f(p) }

// Discard drops every update.
var Discard Sink = SinkFunc(func(types.Progress) {})

// Channel is a Sink backed by a buffered channel. When the buffer is full
// the oldest pending update is dropped, so the worker never waits on the
// reader and the most recent update is always delivered.
//
// Channel supports a single producer.
type Channel struct {
	ch chan types.Progress
}

// NewChannel returns a Channel buffering up to size updates (minimum 1).
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{ch: make(chan types.Progress, size)}
}

// Report enqueues p without blocking.
func (c *Channel) Report(p types.Progress) {
	for {
		select {
		case c.ch <- p:
			return
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// Updates returns the receive side for the foreground.
func (c *Channel) Updates() <-chan types.Progress { return c.ch }

// Close ends the stream. Call it once the worker has finished reporting.
func (c *Channel) Close() { close(c.ch) }

// Recorder keeps every update in order. It is not safe for concurrent use
// and is meant for synchronous callers and tests.
type Recorder struct {
	Updates []types.Progress
}

func (r *Recorder) Report(p types.Progress) { r.Updates = append(r.Updates, p) }

// Last returns the most recent update, or the zero value.
func (r *Recorder) Last() types.Progress {
	if len(r.Updates) == 0 {
		return types.Progress{}
	}
	return r.Updates[len(r.Updates)-1]
}
