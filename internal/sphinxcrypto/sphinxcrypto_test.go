package sphinxcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func genHopKeys(t *testing.T, n int) (privs, pubs [][]byte) {
	t.Helper()
	return genHopKeysForSuite(t, DefaultSuite, n)
}

func genHopKeysForSuite(t *testing.T, suite Suite, n int) (privs, pubs [][]byte) {
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

func TestSharedKeysForwardTransformMatchesSender(t *testing.T) {
	privs, pubs := genHopKeys(t, 3)
	sk, err := GenerateSharedKeys(DefaultSuite, pubs)
	require.NoError(t, err)
	require.Len(t, sk.Secrets, 3)

	alpha := sk.Alpha0
	for i := 0; i < 3; i++ {
		secret, next, err := ForwardTransform(DefaultSuite, privs[i], alpha)
		require.NoError(t, err)
		require.Equal(t, sk.Secrets[i], secret, "hop %d shared secret mismatch", i)
		alpha = next
	}
}

func TestHeaderRoundTripThreeHops(t *testing.T) {
	const maxHops = 4
	privs, pubs := genHopKeys(t, 3)
	sk, err := GenerateSharedKeys(DefaultSuite, pubs)
	require.NoError(t, err)

	header, mac, err := BuildHeader(maxHops, pubs, sk.Secrets, nil)
	require.NoError(t, err)
	require.Len(t, header, HeaderLen(maxHops, 0))

	alpha := sk.Alpha0
	for i := 0; i < len(privs); i++ {
		secret, nextAlpha, err := ForwardTransform(DefaultSuite, privs[i], alpha)
		require.NoError(t, err)
		require.Equal(t, sk.Secrets[i], secret)

		subkeys := DeriveSubKeys(secret)
		fwd, err := ForwardHeader(subkeys, header, mac, maxHops, 0)
		require.NoError(t, err)

		if i == len(privs)-1 {
			require.True(t, fwd.Final)
		} else {
			require.False(t, fwd.Final)
			require.Equal(t, pubs[i+1], fwd.NextHopPublicKey)
			header = fwd.NextHeader
			mac = fwd.NextMAC
			require.Len(t, header, HeaderLen(maxHops, 0))
		}
		alpha = nextAlpha
	}
}

// TestHeaderRoundTripThreeHopsEd25519Suite is the Ed25519-labeled
// counterpart to TestHeaderRoundTripThreeHops, exercising the Suite
// capability set behind a second concrete implementation so the
// interface is actually driven by more than one suite, matching the
// original's test_x25519_meta_packet / test_ed25519_meta_packet pair.
func TestHeaderRoundTripThreeHopsEd25519Suite(t *testing.T) {
	const maxHops = 4
	suite := Ed25519Suite
	privs, pubs := genHopKeysForSuite(t, suite, 3)
	sk, err := GenerateSharedKeys(suite, pubs)
	require.NoError(t, err)

	header, mac, err := BuildHeader(maxHops, pubs, sk.Secrets, nil)
	require.NoError(t, err)
	require.Len(t, header, HeaderLen(maxHops, 0))

	alpha := sk.Alpha0
	for i := 0; i < len(privs); i++ {
		secret, nextAlpha, err := ForwardTransform(suite, privs[i], alpha)
		require.NoError(t, err)
		require.Equal(t, sk.Secrets[i], secret)

		subkeys := DeriveSubKeys(secret)
		fwd, err := ForwardHeader(subkeys, header, mac, maxHops, 0)
		require.NoError(t, err)

		if i == len(privs)-1 {
			require.True(t, fwd.Final)
		} else {
			require.False(t, fwd.Final)
			require.Equal(t, pubs[i+1], fwd.NextHopPublicKey)
			header = fwd.NextHeader
			mac = fwd.NextMAC
			require.Len(t, header, HeaderLen(maxHops, 0))
		}
		alpha = nextAlpha
	}
}

func TestHeaderRoundTripSingleHop(t *testing.T) {
	const maxHops = 4
	privs, pubs := genHopKeys(t, 1)
	sk, err := GenerateSharedKeys(DefaultSuite, pubs)
	require.NoError(t, err)

	header, mac, err := BuildHeader(maxHops, pubs, sk.Secrets, nil)
	require.NoError(t, err)

	secret, _, err := ForwardTransform(DefaultSuite, privs[0], sk.Alpha0)
	require.NoError(t, err)
	require.Equal(t, sk.Secrets[0], secret)

	fwd, err := ForwardHeader(DeriveSubKeys(secret), header, mac, maxHops, 0)
	require.NoError(t, err)
	require.True(t, fwd.Final)
}

func TestForwardHeaderRejectsBadMAC(t *testing.T) {
	const maxHops = 4
	privs, pubs := genHopKeys(t, 1)
	sk, err := GenerateSharedKeys(DefaultSuite, pubs)
	require.NoError(t, err)
	header, mac, err := BuildHeader(maxHops, pubs, sk.Secrets, nil)
	require.NoError(t, err)
	mac[0] ^= 0xff

	secret, _, err := ForwardTransform(DefaultSuite, privs[0], sk.Alpha0)
	require.NoError(t, err)
	_, err = ForwardHeader(DeriveSubKeys(secret), header, mac, maxHops, 0)
	require.Error(t, err)
}

func TestPRPRoundTrip(t *testing.T) {
	key := make([]byte, 48)
	for i := range key {
		key[i] = byte(i)
	}
	payload := []byte("some random message to encode and decode, padded to a fixed size")
	ct := prpForward(key, payload)
	require.Equal(t, len(payload), len(ct))
	pt := prpInverse(key, ct)
	require.Equal(t, payload, pt)
}

func TestPoRChallengeRoundTrip(t *testing.T) {
	secret := []byte("next-hop-por-secret-32-bytes!!!!")
	challenge := PoRChallenge(secret)
	require.True(t, VerifyPoRResponse(challenge, secret))
	require.False(t, VerifyPoRResponse(challenge, []byte("wrong-secret")))
}
