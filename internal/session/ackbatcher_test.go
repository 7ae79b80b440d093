package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAckBatcherProducesExactBatchSizes reproduces S5: frame IDs
// {1, 2, ..., 2*MAX_ACK_FRAMES+2} submitted to the batcher produce
// exactly 3 batches with sizes MAX_ACK_FRAMES, MAX_ACK_FRAMES, 2.
func TestAckBatcherProducesExactBatchSizes(t *testing.T) {
	maxAckFrames := MaxAckFrames(testCapacity)
	b := NewAckBatcher(maxAckFrames)

	var batches [][]uint32
	total := 2*maxAckFrames + 2
	for id := 1; id <= total; id++ {
		batch, ready := b.Add(uint32(id))
		if ready {
			batches = append(batches, batch)
		}
	}
	if tail := b.Flush(); len(tail) > 0 {
		batches = append(batches, tail)
	}

	require.Len(t, batches, 3)
	require.Len(t, batches[0], maxAckFrames)
	require.Len(t, batches[1], maxAckFrames)
	require.Len(t, batches[2], 2)
}

func TestAckBatcherFlushReturnsNilWhenEmpty(t *testing.T) {
	b := NewAckBatcher(4)
	require.Nil(t, b.Flush())
}

func TestAckBatcherFlushClearsPending(t *testing.T) {
	b := NewAckBatcher(4)
	b.Add(1)
	b.Add(2)
	require.Equal(t, 2, b.Len())

	got := b.Flush()
	require.Equal(t, []uint32{1, 2}, got)
	require.Equal(t, 0, b.Len())
	require.Nil(t, b.Flush())
}
