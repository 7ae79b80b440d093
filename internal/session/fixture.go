package session

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// Fixture bundles a frame's segments together with the retransmission
// and acknowledgement state derived from it, for use as a CBOR-encoded
// test/debug snapshot. This is deliberately separate from the wire
// format in messages.go (§6 mandates the fixed binary layout there);
// Fixture exists only for golden-file style snapshot tests and
// operator-facing debug dumps, the same role cbor.Marshal(frame) plays
// around stream.go's wire frames in the teacher codebase.
type Fixture struct {
	FrameID  uint32
	Segments []Segment
	Requests []FrameBitmap
	Acks     []uint32
}

// EncodeFixture serializes a Fixture as CBOR.
func EncodeFixture(f Fixture) ([]byte, error) {
	out, err := cbor.Marshal(f)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.KindParseError, "fixture: cbor marshal", err)
	}
	return out, nil
}

// DecodeFixture parses a Fixture produced by EncodeFixture.
func DecodeFixture(raw []byte) (Fixture, error) {
	var f Fixture
	if err := cbor.Unmarshal(raw, &f); err != nil {
		return Fixture{}, mixerr.Wrap(mixerr.KindParseError, "fixture: cbor unmarshal", err)
	}
	return f, nil
}
