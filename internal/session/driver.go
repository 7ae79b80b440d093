package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	logging "gopkg.in/op/go-logging.v1"

	"github.com/hoprnet/hopr-mixnode/core/worker"
	"github.com/hoprnet/hopr-mixnode/internal/metrics"
	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
	"github.com/hoprnet/hopr-mixnode/internal/pipeline"
)

// ErrSessionClosed is returned by SendFrame/NextFrame once the session
// has been closed.
var ErrSessionClosed = errors.New("session: closed")

// Transport is the narrow sending capability a Driver needs from the
// packet layer: hand a fully-framed Session message to the peer. This
// mirrors §6's PeerTransport, scoped down to the one operation the
// session driver performs on it.
type Transport interface {
	Send(ctx context.Context, msg []byte) error
}

// Config bundles the reliability knobs a Driver needs, a subset of
// internal/config.SessionConfig kept local to avoid an import cycle
// between config and session.
type Config struct {
	Capacity          int
	AckFlushDelay     time.Duration
	RetransmitTimeout time.Duration
	FrameEvictTimeout time.Duration
}

// Driver is the central session owner described in the design notes:
// it holds the Outbox and the timers that reference it behind one
// goroutine pair, addressing every entry by frame_id rather than by a
// direct object reference, so the two can't form a reference cycle.
// Grounded on stream/stream.go's reader/writer goroutine pair
// (worker.Worker-managed) and client2/arq.go's timer-driven
// retransmission bookkeeping, generalized from one-frame-per-message to
// the segmented multi-frame model this spec requires.
type Driver struct {
	worker.Worker

	log       *logging.Logger
	cfg       Config
	transport Transport
	counters  *metrics.SessionCounters

	outbox   *Outbox
	inbox    *Inbox
	ackBatch *AckBatcher

	nextFrameID uint32

	frames *pipeline.Stage // reassembled frames ready for the application

	mu     sync.Mutex
	closed bool
}

// NewDriver constructs a Driver. Call Start to launch its background
// goroutines (ack flush, retransmit-timeout scan, eviction).
func NewDriver(log *logging.Logger, cfg Config, transport Transport, counters *metrics.SessionCounters) *Driver {
	return &Driver{
		log:       log,
		cfg:       cfg,
		transport: transport,
		counters:  counters,
		outbox:    NewOutbox(cfg.FrameEvictTimeout),
		inbox:     NewInbox(cfg.RetransmitTimeout, cfg.FrameEvictTimeout),
		ackBatch:  NewAckBatcher(MaxAckFrames(cfg.Capacity)),
		frames:    pipeline.NewStage(64),
	}
}

// Start launches the background tasks: a ticker flushing the ack
// batcher every AckFlushDelay, and a ticker scanning the inbox/outbox
// for incomplete or expired frames.
func (d *Driver) Start() {
	d.Go(d.ackFlushLoop)
	d.Go(d.timeoutLoop)
}

// SendFrame assigns the next frame ID, segments data, inserts it into
// the outbox, and emits one Segment message per segment in ascending
// seq_num order (§5's ordering guarantee).
func (d *Driver) SendFrame(ctx context.Context, data []byte) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrSessionClosed
	}
	d.nextFrameID++
	frameID := d.nextFrameID
	d.mu.Unlock()

	if frameID == 0 {
		return mixerr.New(mixerr.KindInvalidFrameId, "session: frame id counter wrapped")
	}

	segments, err := SegmentFrame(frameID, data, d.cfg.Capacity)
	if err != nil {
		return err
	}

	d.outbox.Insert(frameID, segments, time.Now())
	for _, seg := range segments {
		if err := d.sendSegment(ctx, seg); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) sendSegment(ctx context.Context, seg Segment) error {
	msg, err := EncodeSegment(seg, d.cfg.Capacity)
	if err != nil {
		return err
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		return err
	}
	if d.counters != nil {
		d.counters.SegmentsSent.Inc()
	}
	return nil
}

// NextFrame blocks until a reassembled frame is available, ctx is
// cancelled, or the session closes.
func (d *Driver) NextFrame(ctx context.Context) ([]byte, error) {
	select {
	case v, ok := <-d.frames.Out():
		if !ok {
			return nil, ErrSessionClosed
		}
		return v.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.HaltCh():
		return nil, ErrSessionClosed
	}
}

// Deliver dispatches one incoming Session message, read off the
// transport by the caller, based on its kind byte. Per §7's Session
// message error policy, a ParseError/InvalidFrameId/DataTooLong here
// drops the message and logs it without tearing down the session.
func (d *Driver) Deliver(ctx context.Context, msg []byte) {
	if len(msg) < MsgHeaderLen {
		d.log.Warningf("session: dropping undersized message (%d bytes)", len(msg))
		return
	}
	switch msg[0] {
	case KindSegment:
		d.handleSegment(msg)
	case KindSegmentRequest:
		d.handleSegmentRequest(ctx, msg)
	case KindFrameAcknowledgements:
		d.handleFrameAcks(msg)
	default:
		d.log.Warningf("session: dropping message with unknown kind %d", msg[0])
	}
}

func (d *Driver) handleSegment(msg []byte) {
	seg, err := DecodeSegment(msg)
	if err != nil {
		d.log.Warningf("session: %s", err)
		return
	}
	if d.counters != nil {
		d.counters.SegmentsReceived.Inc()
	}
	frame, complete, err := d.inbox.AddSegment(seg, time.Now())
	if err != nil {
		d.log.Warningf("session: %s", err)
		return
	}
	if !complete {
		return
	}
	if d.counters != nil {
		d.counters.FramesReassembled.Inc()
	}
	d.scheduleAck(seg.FrameID)

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	// A full ring drops its oldest buffered frame rather than block the
	// decoder goroutine, consistent with §4.5's backpressure rule.
	d.frames.In() <- frame
}

// handleSegmentRequest re-emits any outbox segment named by a missing
// bit, per §4.4's retransmission rule. frame_id=0 slots and unknown
// frame IDs are silently skipped (invariant 7).
func (d *Driver) handleSegmentRequest(ctx context.Context, msg []byte) {
	entries, err := DecodeSegmentRequest(msg)
	if err != nil {
		d.log.Warningf("session: %s", err)
		return
	}
	for _, e := range entries {
		for j := 0; j < MaxSegmentsPerFrame; j++ {
			if e.Bitmap&(1<<uint(j)) == 0 {
				continue
			}
			seg, ok := d.outbox.SegmentFor(e.FrameID, uint8(j))
			if !ok {
				continue
			}
			if err := d.sendSegment(ctx, seg); err != nil {
				d.log.Warningf("session: retransmit segment: %s", err)
			}
			if d.counters != nil {
				d.counters.Retransmits.Inc()
			}
		}
	}
}

func (d *Driver) handleFrameAcks(msg []byte) {
	ids, err := DecodeFrameAcknowledgements(msg)
	if err != nil {
		d.log.Warningf("session: %s", err)
		return
	}
	d.outbox.Ack(ids)
}

func (d *Driver) scheduleAck(frameID uint32) {
	batch, ready := d.ackBatch.Add(frameID)
	if ready {
		d.emitAcks(batch)
	}
}

func (d *Driver) emitAcks(ids []uint32) {
	if len(ids) == 0 {
		return
	}
	msg, err := EncodeFrameAcknowledgements(ids, d.cfg.Capacity)
	if err != nil {
		d.log.Warningf("session: encode frame acks: %s", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.RetransmitTimeout)
	defer cancel()
	if err := d.transport.Send(ctx, msg); err != nil {
		d.log.Warningf("session: send frame acks: %s", err)
	}
}

func (d *Driver) ackFlushLoop() {
	ticker := time.NewTicker(d.cfg.AckFlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-d.HaltCh():
			return
		case <-ticker.C:
			d.emitAcks(d.ackBatch.Flush())
		}
	}
}

// timeoutLoop periodically evicts expired outbox/inbox entries and
// requests retransmission of partial frames that have gone quiet,
// implementing the receiver-side "Partial --timeout--> Partial" and
// sender-side "InFlight --expiry--> Evicted" transitions of §4.4.
func (d *Driver) timeoutLoop() {
	ticker := time.NewTicker(d.cfg.RetransmitTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-d.HaltCh():
			return
		case <-ticker.C:
			now := time.Now()
			for _, id := range d.outbox.EvictExpired(now) {
				d.log.Warningf("session: evicting unacknowledged frame %d", id)
				if d.counters != nil {
					d.counters.FramesEvicted.Inc()
				}
			}
			for _, id := range d.inbox.EvictExpired(now) {
				d.log.Warningf("session: dropping incomplete frame %d", id)
			}
			d.emitSegmentRequests(now)
		}
	}
}

func (d *Driver) emitSegmentRequests(now time.Time) {
	bitmaps := d.inbox.MissingBitmaps(now)
	if len(bitmaps) == 0 {
		return
	}
	maxEntries := MaxSegmentRequestEntries(d.cfg.Capacity)
	for start := 0; start < len(bitmaps); start += maxEntries {
		end := start + maxEntries
		if end > len(bitmaps) {
			end = len(bitmaps)
		}
		msg, err := EncodeSegmentRequest(bitmaps[start:end], d.cfg.Capacity)
		if err != nil {
			d.log.Warningf("session: encode segment request: %s", err)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.RetransmitTimeout)
		err = d.transport.Send(ctx, msg)
		cancel()
		if err != nil {
			d.log.Warningf("session: send segment request: %s", err)
		}
	}
}

// Close winds the session down: a best-effort final ack flush within a
// bounded close budget, then halts the background goroutines, per §5's
// cancellation note ("drains the outbox and emits a final ack batch on a
// best-effort basis with a bounded-time close budget").
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.emitAcks(d.ackBatch.Flush())
	d.Halt()
	d.frames.Close()
	return nil
}

var _ io.Closer = (*Driver)(nil)
