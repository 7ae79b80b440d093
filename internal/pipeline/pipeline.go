// Package pipeline wires the bounded-capacity channels that sit between
// the packet engine's decode/encode stages and the transport, giving the
// concurrency model described for the packet engine (one goroutine per
// stage, backpressure instead of unbounded queuing).
package pipeline

import (
	channels "gopkg.in/eapache/channels.v1"
)

// Stage is a bounded hand-off queue between two pipeline goroutines. It
// is a thin wrapper over channels.RingChannel with a fixed capacity: once
// full, the oldest unread item is dropped rather than blocking the
// producer, matching the packet engine's "queues are bounded, drop when
// full" concurrency note.
type Stage struct {
	ch *channels.RingChannel
}

// NewStage creates a Stage with the given capacity.
func NewStage(capacity int) *Stage {
	return &Stage{ch: channels.NewRingChannel(channels.BufferCap(capacity))}
}

// In returns the writable side of the stage.
func (s *Stage) In() chan<- interface{} { return s.ch.In() }

// Out returns the readable side of the stage.
func (s *Stage) Out() <-chan interface{} { return s.ch.Out() }

// Close shuts the stage down by closing its input side; items already
// buffered can still be read from Out. Sending on In after Close panics.
func (s *Stage) Close() { s.ch.Close() }

// Len reports the number of buffered items.
func (s *Stage) Len() int { return s.ch.Len() }
