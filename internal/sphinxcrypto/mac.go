package sphinxcrypto

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2s"
)

// MACLen is the wire size of a header MAC (§3).
const MACLen = 16

func computeMAC(key, data []byte) []byte {
	h, err := blake2s.New256(key[:32])
	if err != nil {
		panic("sphinxcrypto: mac key: " + err.Error())
	}
	h.Write(data)
	return h.Sum(nil)[:MACLen]
}

// verifyMAC compares in constant time, per §4.2 step 2.
func verifyMAC(key, data, mac []byte) bool {
	if len(mac) != MACLen {
		return false
	}
	computed := computeMAC(key, data)
	return subtle.ConstantTimeCompare(computed, mac) == 1
}
