// Package session implements the Session protocol (C4): segmentation and
// reassembly of frames over the fixed-capacity Session message wire
// format, retransmission requests, and batched frame acknowledgements.
//
// Grounded on stream/stream.go's Frame/smsg/retx pattern (the teacher's
// own reliable-delivery layer) and client2/arq.go's TimerQueue-driven
// retransmission bookkeeping, generalized from the teacher's
// single-frame-per-message model to the spec's segmented-frame model.
package session

import (
	"encoding/binary"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// Session message kinds, per §6's wire format.
const (
	KindSegment               byte = 1
	KindSegmentRequest        byte = 2
	KindFrameAcknowledgements byte = 3
)

// MsgHeaderLen is the 3-byte Session message header: kind(1) + length(2).
const MsgHeaderLen = 3

// MaxSegmentsPerFrame bounds a frame to 8 segments (seq_num fits 3 bits).
const MaxSegmentsPerFrame = 8

// segmentHeaderLen is the fixed prefix of a Segment payload ahead of its
// data: frame_id(4) + header_byte(1) + a reserved byte, matching the
// capacity formula `SEG_CAP = C - 3 - 6` exactly (the reserved byte is
// otherwise unused).
const segmentHeaderLen = 6

// segmentRequestEntryLen is one (frame_id, bitmap) entry: 4 + 1 bytes.
const segmentRequestEntryLen = 5

// ackEntryLen is one acknowledged frame_id: 4 bytes.
const ackEntryLen = 4

// SegCap returns the maximum data bytes one Segment message can carry
// for a transport of the given fixed capacity.
func SegCap(capacity int) int {
	return capacity - MsgHeaderLen - segmentHeaderLen
}

// MaxSegmentRequestEntries returns how many (frame_id, bitmap) entries
// fit in one SegmentRequest message.
func MaxSegmentRequestEntries(capacity int) int {
	return (capacity - MsgHeaderLen) / segmentRequestEntryLen
}

// MaxAckFrames returns how many frame IDs fit in one
// FrameAcknowledgements message, i.e. `MAX_ACK_FRAMES`.
func MaxAckFrames(capacity int) int {
	return (capacity - MsgHeaderLen) / ackEntryLen
}

// Segment is one piece of a segmented frame, per §3/§6.
type Segment struct {
	FrameID       uint32
	SeqNum        uint8
	IsTerminating bool
	Data          []byte
}

// EncodeSegment serializes a Segment into a full Session message of
// capacity bytes, zero-padded beyond the meaningful payload length.
func EncodeSegment(s Segment, capacity int) ([]byte, error) {
	if s.FrameID == 0 {
		return nil, mixerr.New(mixerr.KindInvalidFrameId, "segment: frame id must be non-zero")
	}
	if s.SeqNum >= MaxSegmentsPerFrame {
		return nil, mixerr.New(mixerr.KindDataTooLong, "segment: seq_num out of range")
	}
	if len(s.Data) > SegCap(capacity) {
		return nil, mixerr.New(mixerr.KindDataTooLong, "segment: data exceeds capacity")
	}

	payload := make([]byte, segmentHeaderLen+len(s.Data))
	binary.BigEndian.PutUint32(payload[:4], s.FrameID)
	headerByte := s.SeqNum & 0x07
	if s.IsTerminating {
		headerByte |= 0x80
	}
	payload[4] = headerByte
	// payload[5] is the reserved byte, left zero.
	copy(payload[segmentHeaderLen:], s.Data)

	return frameMessage(KindSegment, payload, capacity), nil
}

// DecodeSegment parses a Segment out of a full Session message.
func DecodeSegment(msg []byte) (Segment, error) {
	kind, payload, err := splitMessage(msg)
	if err != nil {
		return Segment{}, err
	}
	if kind != KindSegment {
		return Segment{}, mixerr.New(mixerr.KindParseError, "segment: wrong message kind")
	}
	if len(payload) < segmentHeaderLen {
		return Segment{}, mixerr.New(mixerr.KindParseError, "segment: truncated header")
	}
	frameID := binary.BigEndian.Uint32(payload[:4])
	if frameID == 0 {
		return Segment{}, mixerr.New(mixerr.KindInvalidFrameId, "segment: frame id is zero")
	}
	headerByte := payload[4]
	return Segment{
		FrameID:       frameID,
		SeqNum:        headerByte & 0x07,
		IsTerminating: headerByte&0x80 != 0,
		Data:          append([]byte{}, payload[segmentHeaderLen:]...),
	}, nil
}

// FrameBitmap is one SegmentRequest entry: the missing-segment bitmap
// for a single frame, one bit per sequence number.
type FrameBitmap struct {
	FrameID uint32
	Bitmap  uint8
}

// EncodeSegmentRequest serializes entries in ascending frame_id order,
// per §4.4's ordering guarantee.
func EncodeSegmentRequest(entries []FrameBitmap, capacity int) ([]byte, error) {
	maxEntries := MaxSegmentRequestEntries(capacity)
	if len(entries) > maxEntries {
		return nil, mixerr.New(mixerr.KindDataTooLong, "segment request: too many entries")
	}
	sorted := append([]FrameBitmap{}, entries...)
	sortFrameBitmaps(sorted)

	payload := make([]byte, 0, len(sorted)*segmentRequestEntryLen)
	for _, e := range sorted {
		if e.FrameID == 0 {
			continue
		}
		var buf [segmentRequestEntryLen]byte
		binary.BigEndian.PutUint32(buf[:4], e.FrameID)
		buf[4] = e.Bitmap
		payload = append(payload, buf[:]...)
	}
	return frameMessage(KindSegmentRequest, payload, capacity), nil
}

// DecodeSegmentRequest parses entries back out, skipping any
// frame_id=0 padding slots and stopping at the declared payload length.
func DecodeSegmentRequest(msg []byte) ([]FrameBitmap, error) {
	kind, payload, err := splitMessage(msg)
	if err != nil {
		return nil, err
	}
	if kind != KindSegmentRequest {
		return nil, mixerr.New(mixerr.KindParseError, "segment request: wrong message kind")
	}
	if len(payload)%segmentRequestEntryLen != 0 {
		return nil, mixerr.New(mixerr.KindParseError, "segment request: misaligned payload")
	}
	var out []FrameBitmap
	for i := 0; i+segmentRequestEntryLen <= len(payload); i += segmentRequestEntryLen {
		frameID := binary.BigEndian.Uint32(payload[i : i+4])
		if frameID == 0 {
			continue
		}
		out = append(out, FrameBitmap{FrameID: frameID, Bitmap: payload[i+4]})
	}
	return out, nil
}

// EncodeFrameAcknowledgements serializes an ascending list of frame IDs.
func EncodeFrameAcknowledgements(frameIDs []uint32, capacity int) ([]byte, error) {
	maxFrames := MaxAckFrames(capacity)
	if len(frameIDs) > maxFrames {
		return nil, mixerr.New(mixerr.KindDataTooLong, "frame acknowledgements: too many entries")
	}
	sorted := append([]uint32{}, frameIDs...)
	sortUint32s(sorted)

	payload := make([]byte, 0, len(sorted)*ackEntryLen)
	for _, id := range sorted {
		if id == 0 {
			continue
		}
		var buf [ackEntryLen]byte
		binary.BigEndian.PutUint32(buf[:], id)
		payload = append(payload, buf[:]...)
	}
	return frameMessage(KindFrameAcknowledgements, payload, capacity), nil
}

// DecodeFrameAcknowledgements parses the ascending frame ID list back out.
func DecodeFrameAcknowledgements(msg []byte) ([]uint32, error) {
	kind, payload, err := splitMessage(msg)
	if err != nil {
		return nil, err
	}
	if kind != KindFrameAcknowledgements {
		return nil, mixerr.New(mixerr.KindParseError, "frame acknowledgements: wrong message kind")
	}
	if len(payload)%ackEntryLen != 0 {
		return nil, mixerr.New(mixerr.KindParseError, "frame acknowledgements: misaligned payload")
	}
	var out []uint32
	for i := 0; i+ackEntryLen <= len(payload); i += ackEntryLen {
		id := binary.BigEndian.Uint32(payload[i : i+ackEntryLen])
		if id == 0 {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// frameMessage wraps a payload with the 3-byte Session header and
// zero-pads it out to the transport's fixed capacity.
func frameMessage(kind byte, payload []byte, capacity int) []byte {
	msg := make([]byte, capacity)
	msg[0] = kind
	binary.BigEndian.PutUint16(msg[1:3], uint16(len(payload)))
	copy(msg[MsgHeaderLen:], payload)
	return msg
}

// splitMessage validates and extracts the declared-length payload from
// a fixed-capacity Session message.
func splitMessage(msg []byte) (kind byte, payload []byte, err error) {
	if len(msg) < MsgHeaderLen {
		return 0, nil, mixerr.New(mixerr.KindParseError, "session message: truncated header")
	}
	kind = msg[0]
	length := int(binary.BigEndian.Uint16(msg[1:3]))
	if MsgHeaderLen+length > len(msg) {
		return 0, nil, mixerr.New(mixerr.KindParseError, "session message: declared length exceeds capacity")
	}
	return kind, msg[MsgHeaderLen : MsgHeaderLen+length], nil
}

func sortFrameBitmaps(s []FrameBitmap) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1].FrameID > s[j].FrameID; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func sortUint32s(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
