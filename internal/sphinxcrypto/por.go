package sphinxcrypto

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2s"
)

// PoRChallenge derives the challenge a hop embeds for its predecessor to
// verify the downstream relay's acknowledgement, per §4.1: a hop learns
// h_i (its own PoR secret) and a challenge derived from h_{i+1} that lets
// it verify the next hop's forwarding ACK.
func PoRChallenge(hNext []byte) []byte {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic("sphinxcrypto: por challenge: " + err.Error())
	}
	h.Write([]byte("HOPR_POR_CHALLENGE"))
	h.Write(hNext)
	return h.Sum(nil)
}

// PoRLastHopConstant is the fixed PoR value used in the final hop's
// slot, since there is no downstream hop to challenge.
var PoRLastHopConstant = func() []byte {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic("sphinxcrypto: por constant: " + err.Error())
	}
	h.Write([]byte("HOPR_POR_LAST_HOP"))
	return h.Sum(nil)
}()

// VerifyPoRResponse checks that response is the correct reveal of the
// secret committed to by challenge.
func VerifyPoRResponse(challenge, response []byte) bool {
	return subtle.ConstantTimeCompare(PoRChallenge(response), challenge) == 1
}
