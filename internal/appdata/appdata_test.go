package appdata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("hello"),
		make([]byte, 492), // PAYLOAD_SIZE(500) - 8
	}
	for _, data := range cases {
		ad := New(TagFromUint64(42), data)
		enc, err := ad.Encode(500)
		require.NoError(t, err)
		dec, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, uint64(42), dec.Tag.AsUint64())
		require.Equal(t, data, dec.PlainText)
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	ad := New(TagFromUint64(1), make([]byte, 600))
	_, err := ad.Encode(500)
	require.Error(t, err)
}

func TestReservedTagRemapsUnassignedToUndefined(t *testing.T) {
	tag := TagFromUint64(7) // inside 0..16 but not Ping/SessionStart/Undefined
	require.True(t, tag.Reserved)
	require.Equal(t, TagUndefined, tag.ReservedVal)
}

func TestApplicationTagPassesThrough(t *testing.T) {
	tag := TagFromUint64(1000)
	require.False(t, tag.Reserved)
	require.Equal(t, uint64(1000), tag.AsUint64())
}

func TestFlagsNotPartOfWireForm(t *testing.T) {
	ad := New(TagFromUint64(uint64(TagPing)), []byte("ping")).WithFlags(FlagOutOfSurbs)
	enc, err := ad.Encode(500)
	require.NoError(t, err)
	dec, err := Decode(enc)
	require.NoError(t, err)
	require.Equal(t, Flag(0), dec.Flags)
	require.True(t, ad.Flags.Has(FlagSurbDistress))
}

func TestEstimateMaxSURBs(t *testing.T) {
	require.Equal(t, 0, EstimateMaxSURBs(500, 64, make([]byte, 500)))
	require.Greater(t, EstimateMaxSURBs(500, 64, nil), 0)
}
