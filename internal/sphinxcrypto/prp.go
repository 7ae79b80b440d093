package sphinxcrypto

import "gitlab.com/yawning/aez.git"

// prpTweak domain-separates the payload PRP from any other use of the
// per-hop key; it is fixed since the key is already single-use.
var prpTweak = []byte("HOPR_PAYLOAD_PRP")

// prpForward applies the length-preserving permutation (AEZ's Encipher
// mode, a wide-block PRP) to payload, used to onion-encrypt the payload
// at send time.
func prpForward(key, payload []byte) []byte {
	return aez.Encrypt(key, prpTweak, nil, 0, payload, nil)
}

// prpInverse undoes prpForward; used to peel one onion layer at a relay
// or final hop.
func prpInverse(key, payload []byte) []byte {
	out, _ := aez.Decrypt(key, prpTweak, nil, 0, payload, nil)
	return out
}

// PayloadPRPForward and PayloadPRPInverse expose the payload PRP to the
// packet engine (C2), which nests and peels onion layers using each
// hop's derived PRP key.
func PayloadPRPForward(key, payload []byte) []byte { return prpForward(key, payload) }
func PayloadPRPInverse(key, payload []byte) []byte { return prpInverse(key, payload) }
