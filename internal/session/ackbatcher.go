package session

import "sync"

// AckBatcher accumulates acknowledged frame IDs and releases them in
// ascending-ID batches of at most maxFrames, per §4.4's batching rule.
// Time-based flushing (the `ack_flush_delay` half of the rule) is the
// driver's responsibility; AckBatcher itself is a plain, synchronous
// accumulator so it stays trivially testable.
type AckBatcher struct {
	mu        sync.Mutex
	pending   []uint32
	maxFrames int
}

// NewAckBatcher constructs a batcher capped at maxFrames IDs per batch.
func NewAckBatcher(maxFrames int) *AckBatcher {
	return &AckBatcher{maxFrames: maxFrames}
}

// Add records one acknowledged frame ID. If the pending set reaches
// maxFrames, a full batch is released immediately (ready=true).
func (b *AckBatcher) Add(frameID uint32) (batch []uint32, ready bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, frameID)
	if len(b.pending) >= b.maxFrames {
		batch = append([]uint32{}, b.pending[:b.maxFrames]...)
		b.pending = append([]uint32{}, b.pending[b.maxFrames:]...)
		return batch, true
	}
	return nil, false
}

// Flush releases whatever is pending, regardless of size. The driver
// calls this when ack_flush_delay elapses.
func (b *AckBatcher) Flush() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = nil
	return batch
}

// Len reports the number of frame IDs currently pending a flush.
func (b *AckBatcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
