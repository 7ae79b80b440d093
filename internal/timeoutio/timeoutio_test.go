package timeoutio

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// blockingSink never accepts, simulating a perpetually-busy downstream.
type blockingSink struct {
	received int32
}

func (b *blockingSink) Send(ctx context.Context, item int) error {
	<-ctx.Done()
	return ctx.Err()
}
func (b *blockingSink) Close() error { return nil }

func TestTimeoutSinkTimesOutAndLeavesStateUnchanged(t *testing.T) {
	inner := &blockingSink{}
	ts := NewTimeoutSink[int](inner, 10*time.Millisecond)
	err := ts.Send(context.Background(), 1)
	require.Error(t, err)
	require.True(t, mixerr.Is(err, mixerr.KindSinkTimeout))
	require.Equal(t, int32(0), atomic.LoadInt32(&inner.received))
}

type countingSink struct {
	items []int
}

func (c *countingSink) Send(ctx context.Context, item int) error {
	c.items = append(c.items, item)
	return nil
}
func (c *countingSink) Close() error { return nil }

type sliceStream struct {
	items []int
	pos   int
}

func (s *sliceStream) Next(ctx context.Context) (int, error) {
	if s.pos >= len(s.items) {
		var zero int
		return zero, io.EOF
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

func TestForwardWithTimeoutDiscardsOnTimeout(t *testing.T) {
	inner := &blockingSink{}
	ts := NewTimeoutSink[int](inner, 5*time.Millisecond)
	src := &sliceStream{items: []int{1, 2, 3}}
	err := ForwardWithTimeout[int](context.Background(), src, ts)
	require.NoError(t, err)
}

func TestForwardWithTimeoutDeliversOnFastSink(t *testing.T) {
	inner := &countingSink{}
	ts := NewTimeoutSink[int](inner, time.Second)
	src := &sliceStream{items: []int{1, 2, 3}}
	err := ForwardWithTimeout[int](context.Background(), src, ts)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, inner.items)
}

func TestForwardWithTimeoutPropagatesNonTimeoutError(t *testing.T) {
	inner := &countingSink{}
	ts := NewTimeoutSink[int](inner, time.Second)
	boom := errors.New("boom")
	src := &erroringStream{err: boom}
	err := ForwardWithTimeout[int](context.Background(), src, ts)
	require.ErrorIs(t, err, boom)
}

type erroringStream struct{ err error }

func (e *erroringStream) Next(ctx context.Context) (int, error) {
	var zero int
	return zero, e.err
}
