package sphinxcrypto

import (
	"hash"
	"io"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/hkdf"
)

// Domain-separation labels for the sub-keys derived from each per-hop
// shared secret, mirroring extract_key_from_group_element /
// expand_key_from_group_element in the original shared-key derivation.
const (
	labelSecret    = "HOPR_SHARED_SECRET"
	labelBlinding  = "HOPR_BLINDING"
	labelPRGKey    = "HOPR_PRG_KEY"
	labelPRPKey    = "HOPR_PRP_KEY"
	labelMACKey    = "HOPR_MAC_KEY"
	labelPacketTag = "HOPR_PACKET_TAG"
	labelPoRSecret = "HOPR_POR_SECRET"
)

func newBlake2s256() hash.Hash {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic("sphinxcrypto: blake2s.New256: " + err.Error())
	}
	return h
}

// deriveKey runs HKDF-Extract then HKDF-Expand over ikm, producing n
// bytes of output keying material labeled by label. Blake2s256 is the
// hash function, matching the original's SimpleHkdf<Blake2s256> usage.
func deriveKey(label string, ikm []byte, n int) []byte {
	prk := hkdf.Extract(newBlake2s256, ikm, []byte(label))
	r := hkdf.Expand(newBlake2s256, prk, []byte(label))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		panic("sphinxcrypto: hkdf expand: " + err.Error())
	}
	return out
}
