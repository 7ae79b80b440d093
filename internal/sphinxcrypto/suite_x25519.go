package sphinxcrypto

import (
	"crypto/rand"

	"filippo.io/edwards25519"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// x25519Suite is the default Sphinx suite. It performs raw (unclamped)
// scalar arithmetic on the Edwards25519 group via filippo.io/edwards25519,
// which is required here because the blinding recursion (b_i·α_i chained
// across hops) needs ordinary group scalar multiplication, not the
// clamped Diffie-Hellman primitive golang.org/x/crypto/curve25519
// exposes.
type x25519Suite struct{}

// DefaultSuite is the X25519-labeled default ciphersuite (§4.1); backed
// by Edwards25519 group arithmetic for unclamped scalar operations.
var DefaultSuite Suite = x25519Suite{}

func (x25519Suite) Name() string  { return "x25519" }
func (x25519Suite) AlphaLen() int { return AlphaLen }

func (x25519Suite) RandomScalar() ([]byte, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "random scalar", err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "reduce random scalar", err)
	}
	if isZeroScalar(s) {
		return nil, ErrInvalidSecretScalar
	}
	return s.Bytes(), nil
}

func (x25519Suite) ScalarBaseMult(scalar []byte) ([]byte, error) {
	s, err := decodeScalar(scalar)
	if err != nil {
		return nil, err
	}
	p := new(edwards25519.Point).ScalarBaseMult(s)
	return p.Bytes(), nil
}

func (x25519Suite) ScalarMult(scalar, point []byte) ([]byte, error) {
	s, err := decodeScalar(scalar)
	if err != nil {
		return nil, err
	}
	q, err := new(edwards25519.Point).SetBytes(point)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "decode point", err)
	}
	r := new(edwards25519.Point).ScalarMult(s, q)
	return r.Bytes(), nil
}

func (x25519Suite) PublicKeyToPoint(pub []byte) ([]byte, error) {
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "public key not on curve", err)
	}
	out := make([]byte, len(pub))
	copy(out, pub)
	return out, nil
}

func (x25519Suite) MultiplyScalars(a, b []byte) ([]byte, error) {
	sa, err := decodeScalar(a)
	if err != nil {
		return nil, err
	}
	sb, err := decodeScalar(b)
	if err != nil {
		return nil, err
	}
	r := new(edwards25519.Scalar).Multiply(sa, sb)
	if isZeroScalar(r) {
		return nil, ErrInvalidSecretScalar
	}
	return r.Bytes(), nil
}

func (x25519Suite) ReduceScalar(wide []byte) ([]byte, error) {
	buf := make([]byte, 64)
	copy(buf, wide)
	s, err := edwards25519.NewScalar().SetUniformBytes(buf)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "reduce wide scalar", err)
	}
	return s.Bytes(), nil
}

func decodeScalar(b []byte) (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "decode scalar", err)
	}
	return s, nil
}

func isZeroScalar(s *edwards25519.Scalar) bool {
	zero := edwards25519.NewScalar()
	return s.Equal(zero) == 1
}
