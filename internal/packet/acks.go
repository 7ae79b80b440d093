package packet

import "github.com/hoprnet/hopr-mixnode/internal/mixerr"

// AckLen is the wire size of one acknowledgement (a blake2s digest over
// the acknowledged packet's tag), matching MACLen since both are
// blake2s-256 truncations of the same width.
const AckLen = 16

// MaxAcknowledgementsBatchSize bounds how many acks a single
// Acknowledgement message may carry, keeping the batch within one
// meta-packet's payload budget alongside its length prefix.
const MaxAcknowledgementsBatchSize = 8

// Acknowledgement is a batch of acks carried as the plaintext of a
// dedicated meta-packet, distinct from ordinary application data. The
// session driver (C4) is the only caller that constructs and consumes
// these; the packet engine just knows how to (de)serialize the batch.
type Acknowledgement struct {
	Acks [][]byte
}

// EncodeAcknowledgements serializes a batch as count(1) || acks(n*AckLen).
func EncodeAcknowledgements(acks [][]byte) ([]byte, error) {
	if len(acks) == 0 || len(acks) > MaxAcknowledgementsBatchSize {
		return nil, mixerr.New(mixerr.KindDataTooLong, "acknowledgement batch size out of range")
	}
	out := make([]byte, 1, 1+len(acks)*AckLen)
	out[0] = byte(len(acks))
	for _, a := range acks {
		if len(a) != AckLen {
			return nil, mixerr.New(mixerr.KindDataTooLong, "acknowledgement has wrong length")
		}
		out = append(out, a...)
	}
	return out, nil
}

// DecodeAcknowledgements parses a batch produced by EncodeAcknowledgements.
func DecodeAcknowledgements(raw []byte) (*Acknowledgement, error) {
	if len(raw) < 1 {
		return nil, mixerr.New(mixerr.KindParseError, "acknowledgement batch: empty")
	}
	count := int(raw[0])
	if count == 0 || count > MaxAcknowledgementsBatchSize {
		return nil, mixerr.New(mixerr.KindParseError, "acknowledgement batch: invalid count")
	}
	want := 1 + count*AckLen
	if len(raw) != want {
		return nil, mixerr.New(mixerr.KindParseError, "acknowledgement batch: length mismatch")
	}
	acks := make([][]byte, count)
	for i := 0; i < count; i++ {
		start := 1 + i*AckLen
		acks[i] = append([]byte{}, raw[start:start+AckLen]...)
	}
	return &Acknowledgement{Acks: acks}, nil
}
