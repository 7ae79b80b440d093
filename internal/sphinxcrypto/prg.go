package sphinxcrypto

import "github.com/katzenpost/chacha20"

// prgKeystream produces n bytes of keystream under key, used to mask the
// Sphinx header one layer per hop. A fixed all-zero nonce is safe here:
// the key itself is a fresh, packet-unique derivation of the per-hop
// shared secret and is never reused across packets. github.com/katzenpost/chacha20
// is the original Bernstein construction (64-bit nonce, implicit 64-bit
// counter), not the IETF 96-bit-nonce variant golang.org/x/crypto/chacha20
// exposes, so the nonce here is 8 bytes.
func prgKeystream(key []byte, n int) []byte {
	nonce := make([]byte, 8)
	c, err := chacha20.New(key[:32], nonce)
	if err != nil {
		panic("sphinxcrypto: prg keystream: " + err.Error())
	}
	out := make([]byte, n)
	c.XORKeyStream(out, out)
	return out
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}
