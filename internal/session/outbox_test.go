package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOutboxAckIsIdempotent(t *testing.T) {
	ob := NewOutbox(time.Second)
	segs, err := SegmentFrame(1, []byte("payload"), testCapacity)
	require.NoError(t, err)
	ob.Insert(1, segs, time.Now())
	require.Equal(t, 1, ob.Len())

	// Invariant 8: acking the same frame twice removes it at most once
	// and never panics.
	ob.Ack([]uint32{1})
	require.Equal(t, 0, ob.Len())
	require.NotPanics(t, func() { ob.Ack([]uint32{1}) })
	require.Equal(t, 0, ob.Len())
}

func TestOutboxSegmentForIgnoresUnknownFrame(t *testing.T) {
	ob := NewOutbox(time.Second)
	_, ok := ob.SegmentFor(99, 0)
	require.False(t, ok)
}

func TestOutboxSegmentForIgnoresUnknownSeqNum(t *testing.T) {
	ob := NewOutbox(time.Second)
	segs, err := SegmentFrame(1, []byte("short"), testCapacity)
	require.NoError(t, err)
	ob.Insert(1, segs, time.Now())

	_, ok := ob.SegmentFor(1, uint8(len(segs)))
	require.False(t, ok)

	got, ok := ob.SegmentFor(1, 0)
	require.True(t, ok)
	require.Equal(t, segs[0], got)
}

func TestOutboxEvictExpiredRemovesOnlyPastDeadline(t *testing.T) {
	ob := NewOutbox(10 * time.Millisecond)
	segs, err := SegmentFrame(1, []byte("x"), testCapacity)
	require.NoError(t, err)
	now := time.Now()
	ob.Insert(1, segs, now)

	require.Empty(t, ob.EvictExpired(now))
	require.Equal(t, 1, ob.Len())

	evicted := ob.EvictExpired(now.Add(20 * time.Millisecond))
	require.Equal(t, []uint32{1}, evicted)
	require.Equal(t, 0, ob.Len())
}
