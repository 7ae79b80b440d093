// Package timeoutio implements the timeout sink/stream adapters (C5): a
// sink that fails if downstream is not ready within a deadline, and a
// stream-to-sink forwarder that drops rather than cancels on a per-item
// timeout.
//
// Grounded on common/network-types/src/timeout.rs's TimeoutSink and
// ForwardWithTimeout, reworked from futures Sink/Stream polling onto Go's
// cooperating-goroutine idiom (context.Context deadlines over channel
// sends), matching how the teacher structures suspendable pipeline
// stages (stream/stream.go's reader and writer goroutines driven by
// worker.Worker).
package timeoutio

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// Sink is any destination that accepts items one at a time. Send must
// honor ctx cancellation without partially committing item: on
// cancellation the sink's state must be exactly as it was before Send
// was called (§8 invariant 9).
type Sink[T any] interface {
	Send(ctx context.Context, item T) error
	Close() error
}

// Stream is any source of items, terminated by io.EOF.
type Stream[T any] interface {
	Next(ctx context.Context) (T, error)
}

// TimeoutSink wraps a Sink so every Send either completes within timeout
// or fails with a KindSinkTimeout error, leaving the inner sink's state
// untouched.
type TimeoutSink[T any] struct {
	inner   Sink[T]
	timeout time.Duration
}

// NewTimeoutSink wraps inner with a per-Send deadline.
func NewTimeoutSink[T any](inner Sink[T], timeout time.Duration) *TimeoutSink[T] {
	return &TimeoutSink[T]{inner: inner, timeout: timeout}
}

// Send delegates to the inner sink under a bounded deadline. If the
// deadline elapses before the inner sink accepts item, Send returns a
// KindSinkTimeout error and the inner sink is left exactly as it was
// (the inner Send observed ctx cancellation and made no partial commit).
func (s *TimeoutSink[T]) Send(ctx context.Context, item T) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.inner.Send(cctx, item)
	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return mixerr.Wrap(mixerr.KindSinkTimeout, "send deadline exceeded", err)
	}
	return err
}

// Close delegates to the inner sink.
func (s *TimeoutSink[T]) Close() error { return s.inner.Close() }

// ForwardWithTimeout drives src into sink until src is exhausted (Next
// returns io.EOF) or a non-timeout error occurs. A KindSinkTimeout error
// from sink discards the in-flight item and continues with the next
// stream item, matching §4.5: the forwarder never blocks the whole
// pipeline on one slow item. Any other sink error terminates the forward
// and is returned. sink is always closed before returning.
func ForwardWithTimeout[T any](ctx context.Context, src Stream[T], sink *TimeoutSink[T]) error {
	defer sink.Close()
	for {
		item, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.Send(ctx, item); err != nil {
			if mixerr.Is(err, mixerr.KindSinkTimeout) {
				continue
			}
			return err
		}
	}
}
