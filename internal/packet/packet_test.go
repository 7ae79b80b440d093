package packet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
	"github.com/hoprnet/hopr-mixnode/internal/sphinxcrypto"
)

const testMaxHops = 4
const testPayloadSize = 500

type fakeReplayFilter struct {
	seen map[string]bool
}

func newFakeReplayFilter() *fakeReplayFilter {
	return &fakeReplayFilter{seen: map[string]bool{}}
}

func (f *fakeReplayFilter) ContainsOrInsert(tag []byte) bool {
	k := string(tag)
	if f.seen[k] {
		return true
	}
	f.seen[k] = true
	return false
}

func genHopKeys(t *testing.T, n int) (privs, pubs [][]byte) {
	t.Helper()
	return genHopKeysForSuite(t, sphinxcrypto.DefaultSuite, n)
}

func genHopKeysForSuite(t *testing.T, suite sphinxcrypto.Suite, n int) (privs, pubs [][]byte) {
	t.Helper()
	for i := 0; i < n; i++ {
		priv, err := suite.RandomScalar()
		require.NoError(t, err)
		pub, err := suite.ScalarBaseMult(priv)
		require.NoError(t, err)
		privs = append(privs, priv)
		pubs = append(pubs, pub)
	}
	return
}

// TestEncodeForwardThreeHopRoundTrip drives a packet through two relays
// and a final hop, checking that the plaintext arrives intact and that
// every intermediate outcome is classified correctly (S2 from the
// end-to-end scenarios).
func TestEncodeForwardThreeHopRoundTrip(t *testing.T) {
	privs, pubs := genHopKeys(t, 3)
	plaintext := []byte("hello mixnet")

	raw, err := Encode(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, pubs, plaintext)
	require.NoError(t, err)

	originalLen := len(raw)
	rf := newFakeReplayFilter()
	for i := 0; i < len(privs); i++ {
		outcome, err := Forward(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, privs[i], raw, rf, nil)
		require.NoError(t, err)
		if i == len(privs)-1 {
			require.NotNil(t, outcome.Final)
			require.Equal(t, plaintext, outcome.Final.PlainText)
		} else {
			require.NotNil(t, outcome.Forwarded)
			require.Equal(t, pubs[i+1], outcome.Forwarded.NextHopPublicKey)
			// Invariant 2: meta-packet length is identical before and
			// after every forward step.
			require.Len(t, outcome.Forwarded.MetaPacket, originalLen)
			raw = outcome.Forwarded.MetaPacket
		}
	}
}

// TestEncodeForwardThreeHopRoundTripEd25519Suite repeats S1/S2 against
// the Ed25519-labeled suite, exercising all three hops behind the same
// Suite interface the way the original's test_x25519_meta_packet /
// test_ed25519_meta_packet / test_secp256k1_meta_packet trio do.
func TestEncodeForwardThreeHopRoundTripEd25519Suite(t *testing.T) {
	suite := sphinxcrypto.Ed25519Suite
	privs, pubs := genHopKeysForSuite(t, suite, 3)
	plaintext := []byte("hello mixnet over ed25519")

	raw, err := Encode(suite, testMaxHops, testPayloadSize, pubs, plaintext)
	require.NoError(t, err)

	originalLen := len(raw)
	rf := newFakeReplayFilter()
	for i := 0; i < len(privs); i++ {
		outcome, err := Forward(suite, testMaxHops, testPayloadSize, privs[i], raw, rf, nil)
		require.NoError(t, err)
		if i == len(privs)-1 {
			require.NotNil(t, outcome.Final)
			require.Equal(t, plaintext, outcome.Final.PlainText)
		} else {
			require.NotNil(t, outcome.Forwarded)
			require.Equal(t, pubs[i+1], outcome.Forwarded.NextHopPublicKey)
			require.Len(t, outcome.Forwarded.MetaPacket, originalLen)
			raw = outcome.Forwarded.MetaPacket
		}
	}
}

func TestEncodeForwardSingleHop(t *testing.T) {
	privs, pubs := genHopKeys(t, 1)
	plaintext := []byte("direct")

	raw, err := Encode(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, pubs, plaintext)
	require.NoError(t, err)

	outcome, err := Forward(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, privs[0], raw, newFakeReplayFilter(), nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.Final)
	require.Equal(t, plaintext, outcome.Final.PlainText)
}

func TestEncodeRejectsPathLongerThanMaxHops(t *testing.T) {
	_, pubs := genHopKeys(t, testMaxHops+1)
	_, err := Encode(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, pubs, []byte("x"))
	require.Error(t, err)
	require.True(t, mixerr.Is(err, mixerr.KindPathTooLong))
}

func TestEncodeRejectsOversizedPlaintext(t *testing.T) {
	_, pubs := genHopKeys(t, 1)
	big := make([]byte, testPayloadSize)
	_, err := Encode(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, pubs, big)
	require.Error(t, err)
	require.True(t, mixerr.Is(err, mixerr.KindPayloadTooLong))
}

func TestForwardRejectsReplayedPacket(t *testing.T) {
	privs, pubs := genHopKeys(t, 1)
	raw, err := Encode(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, pubs, []byte("once"))
	require.NoError(t, err)

	rf := newFakeReplayFilter()
	_, err = Forward(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, privs[0], raw, rf, nil)
	require.NoError(t, err)

	_, err = Forward(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, privs[0], raw, rf, nil)
	require.Error(t, err)
	require.True(t, mixerr.Is(err, mixerr.KindReplay))
}

func TestForwardRejectsTamperedHeaderMAC(t *testing.T) {
	privs, pubs := genHopKeys(t, 2)
	raw, err := Encode(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, pubs, []byte("tamper me"))
	require.NoError(t, err)

	headerLen := sphinxcrypto.HeaderLen(testMaxHops, 0)
	macOffset := sphinxcrypto.AlphaLen + headerLen
	raw[macOffset] ^= 0xff

	_, err = Forward(sphinxcrypto.DefaultSuite, testMaxHops, testPayloadSize, privs[0], raw, newFakeReplayFilter(), nil)
	require.Error(t, err)
	require.True(t, mixerr.Is(err, mixerr.KindTagMismatch))
}

func TestAcknowledgementBatchRoundTrip(t *testing.T) {
	acks := make([][]byte, 0, MaxAcknowledgementsBatchSize)
	for i := 0; i < MaxAcknowledgementsBatchSize; i++ {
		ack := make([]byte, AckLen)
		ack[0] = byte(i)
		acks = append(acks, ack)
	}
	raw, err := EncodeAcknowledgements(acks)
	require.NoError(t, err)

	batch, err := DecodeAcknowledgements(raw)
	require.NoError(t, err)
	require.Equal(t, acks, batch.Acks)
}

func TestEncodeAcknowledgementsRejectsOversizedBatch(t *testing.T) {
	acks := make([][]byte, MaxAcknowledgementsBatchSize+1)
	for i := range acks {
		acks[i] = make([]byte, AckLen)
	}
	_, err := EncodeAcknowledgements(acks)
	require.Error(t, err)
	require.True(t, mixerr.Is(err, mixerr.KindDataTooLong))
}
