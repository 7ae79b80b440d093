// Package appdata implements the application-data codec (C3): tagged,
// fixed-budget payload framing carried inside a Sphinx packet's payload.
//
// Grounded on protocols/app/src/v1.rs: the Tag/ReservedTag split and the
// ApplicationData wire form (be_u64 tag || bytes).
package appdata

import (
	"encoding/binary"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// ReservedTag enumerates the well-known tag values in 0..16.
type ReservedTag uint64

const (
	TagPing         ReservedTag = 0
	TagSessionStart ReservedTag = 1
	TagUndefined    ReservedTag = 15
)

// ReservedRangeEnd is the exclusive upper bound of the reserved tag
// range; tags >= this value are application-assigned.
const ReservedRangeEnd = 16

// Tag discriminates between reserved, protocol-internal tags and
// application-assigned ones.
type Tag struct {
	Reserved    bool
	ReservedVal ReservedTag
	AppVal      uint64
}

// TagFromUint64 classifies a raw wire tag value. An unassigned value
// inside the reserved range remaps to TagUndefined rather than being
// rejected, matching ReservedTag's behavior in the original.
func TagFromUint64(v uint64) Tag {
	if v < ReservedRangeEnd {
		switch ReservedTag(v) {
		case TagPing, TagSessionStart, TagUndefined:
			return Tag{Reserved: true, ReservedVal: ReservedTag(v)}
		default:
			return Tag{Reserved: true, ReservedVal: TagUndefined}
		}
	}
	return Tag{Reserved: false, AppVal: v}
}

// AsUint64 returns the wire representation of the tag.
func (t Tag) AsUint64() uint64 {
	if t.Reserved {
		return uint64(t.ReservedVal)
	}
	return t.AppVal
}

// Flag is a local-only signal attached to ApplicationData, never
// serialized to the wire. Grounded on the ApplicationFlag bitflags in
// v1.rs (flagset!), dropped by the distillation but present in the
// original and reinstated here.
type Flag uint8

const (
	// FlagSurbDistress signals that this node's SURB reserve for the
	// pseudonym is running low.
	FlagSurbDistress Flag = 0b0001
	// FlagOutOfSurbs implies FlagSurbDistress and signals total
	// exhaustion.
	FlagOutOfSurbs Flag = 0b0011
)

// Has reports whether f contains all bits of other.
func (f Flag) Has(other Flag) bool { return f&other == other }

// ApplicationData is the parsed (tag, bytes) pair plus local-only flags.
type ApplicationData struct {
	Tag       Tag
	PlainText []byte
	Flags     Flag
}

// New constructs an ApplicationData with no flags set.
func New(tag Tag, plainText []byte) ApplicationData {
	return ApplicationData{Tag: tag, PlainText: plainText}
}

// WithFlags returns a copy of a carrying the given local-only flags.
func (a ApplicationData) WithFlags(f Flag) ApplicationData {
	a.Flags = f
	return a
}

// Encode serializes (tag, bytes) as be_u64(tag) || bytes, for embedding
// in a Sphinx payload of capacity payloadBudget (PAYLOAD_SIZE - 4, after
// the padding tag is accounted for by the packet engine). Flags are
// never serialized.
func (a ApplicationData) Encode(payloadBudget int) ([]byte, error) {
	if len(a.PlainText) > payloadBudget-8 {
		return nil, mixerr.New(mixerr.KindPayloadTooLong, "application data exceeds payload budget")
	}
	out := make([]byte, 8+len(a.PlainText))
	binary.BigEndian.PutUint64(out[:8], a.Tag.AsUint64())
	copy(out[8:], a.PlainText)
	return out, nil
}

// Decode parses the wire form produced by Encode. The only parse failure
// is a buffer too short to hold the tag, reported as a KindParseError
// ("ApplicationData: truncated tag"). There is no separate tag error:
// any 8+ byte buffer yields a valid tag, since reserved-range remapping
// never rejects. An empty body decodes to a nil PlainText.
func Decode(raw []byte) (ApplicationData, error) {
	if len(raw) < 8 {
		return ApplicationData{}, mixerr.New(mixerr.KindParseError, "ApplicationData: truncated tag")
	}
	tag := TagFromUint64(binary.BigEndian.Uint64(raw[:8]))
	return ApplicationData{Tag: tag, PlainText: append([]byte(nil), raw[8:]...)}, nil
}

// EstimateMaxSURBs computes the maximum number of SURBs of surbSize
// bytes that can co-reside with msg in one meta-packet of the given
// payload budget, per §4.3's estimator.
func EstimateMaxSURBs(payloadBudget, surbSize int, msg []byte) int {
	remaining := payloadBudget - 8 - len(msg)
	if remaining <= 0 || surbSize <= 0 {
		return 0
	}
	return remaining / surbSize
}
