package session

import "github.com/hoprnet/hopr-mixnode/internal/mixerr"

// SegmentFrame splits data into ascending-seq_num segments for frameID,
// per §4.4's segmentation rule: SEG_CAP-sized pieces, terminating flag
// set on the last. frameID must be non-zero.
func SegmentFrame(frameID uint32, data []byte, capacity int) ([]Segment, error) {
	if frameID == 0 {
		return nil, mixerr.New(mixerr.KindInvalidFrameId, "segment frame: frame id must be non-zero")
	}
	segCap := SegCap(capacity)
	n := (len(data) + segCap - 1) / segCap
	if n == 0 {
		n = 1
	}
	if n > MaxSegmentsPerFrame {
		return nil, mixerr.New(mixerr.KindDataTooLong, "segment frame: frame too large for 8 segments")
	}

	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := i * segCap
		end := start + segCap
		if end > len(data) {
			end = len(data)
		}
		segments = append(segments, Segment{
			FrameID:       frameID,
			SeqNum:        uint8(i),
			IsTerminating: i == n-1,
			Data:          append([]byte{}, data[start:end]...),
		})
	}
	return segments, nil
}
