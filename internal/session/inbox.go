package session

import (
	"sync"
	"time"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// partialFrame accumulates segments for one not-yet-complete frame.
type partialFrame struct {
	segments map[uint8][]byte
	total    int // -1 until the terminating segment is seen
	deadline time.Time
	lastSeg  time.Time
}

// deliveredWindow bounds how many already-delivered frame IDs an Inbox
// remembers for idempotent-drop purposes. Frame IDs are assigned by the
// sender in increasing order, so a fixed-size FIFO window behind the
// most recent delivery is enough to catch the late-duplicate deliveries
// a retransmission race can produce without retaining the set for the
// whole session lifetime.
const deliveredWindow = 4096

// Inbox tracks frames the receiver has partially assembled, per §4.4's
// receiver-side state machine: Empty -> Partial -> Complete/Dropped.
type Inbox struct {
	mu                sync.Mutex
	partial           map[uint32]*partialFrame
	delivered         map[uint32]bool
	deliveredOrder    []uint32
	incompleteTimeout time.Duration
	evictTimeout      time.Duration
}

// NewInbox constructs an empty Inbox. incompleteTimeout governs how
// long a partial frame waits before a SegmentRequest is emitted for its
// missing segments; evictTimeout governs how long it is retained
// overall before being dropped.
func NewInbox(incompleteTimeout, evictTimeout time.Duration) *Inbox {
	return &Inbox{
		partial:           make(map[uint32]*partialFrame),
		delivered:         make(map[uint32]bool),
		incompleteTimeout: incompleteTimeout,
		evictTimeout:      evictTimeout,
	}
}

// markDelivered records frameID as delivered, evicting the oldest entry
// once the window fills.
func (ib *Inbox) markDelivered(frameID uint32) {
	ib.delivered[frameID] = true
	ib.deliveredOrder = append(ib.deliveredOrder, frameID)
	if len(ib.deliveredOrder) > deliveredWindow {
		oldest := ib.deliveredOrder[0]
		ib.deliveredOrder = ib.deliveredOrder[1:]
		delete(ib.delivered, oldest)
	}
}

// AddSegment inserts one segment, returning the reassembled frame and
// true once every segment 0..k has arrived. Segments for an
// already-delivered frame are dropped as a no-op (idempotent).
func (ib *Inbox) AddSegment(seg Segment, now time.Time) (frame []byte, complete bool, err error) {
	if seg.FrameID == 0 {
		return nil, false, mixerr.New(mixerr.KindInvalidFrameId, "inbox: zero frame id")
	}

	ib.mu.Lock()
	defer ib.mu.Unlock()

	if ib.delivered[seg.FrameID] {
		return nil, false, nil
	}

	p, ok := ib.partial[seg.FrameID]
	if !ok {
		p = &partialFrame{segments: make(map[uint8][]byte), total: -1, deadline: now.Add(ib.evictTimeout)}
		ib.partial[seg.FrameID] = p
	}
	p.segments[seg.SeqNum] = seg.Data
	p.lastSeg = now
	if seg.IsTerminating {
		p.total = int(seg.SeqNum) + 1
	}

	if p.total < 0 || len(p.segments) < p.total {
		return nil, false, nil
	}
	for i := 0; i < p.total; i++ {
		if _, ok := p.segments[uint8(i)]; !ok {
			return nil, false, nil
		}
	}

	var out []byte
	for i := 0; i < p.total; i++ {
		out = append(out, p.segments[uint8(i)]...)
	}
	delete(ib.partial, seg.FrameID)
	ib.markDelivered(seg.FrameID)
	return out, true, nil
}

// MissingBitmaps returns a SegmentRequest entry for every partial frame
// whose incompleteness timer has elapsed since its last received
// segment, listing the segment numbers still absent below its known
// total (or below MaxSegmentsPerFrame if the total is not yet known).
func (ib *Inbox) MissingBitmaps(now time.Time) []FrameBitmap {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	var out []FrameBitmap
	for id, p := range ib.partial {
		if now.Sub(p.lastSeg) < ib.incompleteTimeout {
			continue
		}
		limit := p.total
		if limit < 0 {
			limit = MaxSegmentsPerFrame
		}
		var bitmap uint8
		for i := 0; i < limit; i++ {
			if _, ok := p.segments[uint8(i)]; !ok {
				bitmap |= 1 << uint(i)
			}
		}
		if bitmap != 0 {
			out = append(out, FrameBitmap{FrameID: id, Bitmap: bitmap})
		}
	}
	sortFrameBitmaps(out)
	return out
}

// EvictExpired drops partial frames past their overall eviction
// deadline, returning their frame IDs.
func (ib *Inbox) EvictExpired(now time.Time) []uint32 {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	var evicted []uint32
	for id, p := range ib.partial {
		if !now.Before(p.deadline) {
			evicted = append(evicted, id)
			delete(ib.partial, id)
		}
	}
	return evicted
}
