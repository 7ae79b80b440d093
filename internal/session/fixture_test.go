package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixtureRoundTrip(t *testing.T) {
	segs, err := SegmentFrame(7, []byte("snapshot this frame for a golden test fixture"), testCapacity)
	require.NoError(t, err)

	f := Fixture{
		FrameID:  7,
		Segments: segs,
		Requests: []FrameBitmap{{FrameID: 7, Bitmap: 0b00000010}},
		Acks:     []uint32{7},
	}

	raw, err := EncodeFixture(f)
	require.NoError(t, err)

	got, err := DecodeFixture(raw)
	require.NoError(t, err)
	require.Equal(t, f, got)
}
