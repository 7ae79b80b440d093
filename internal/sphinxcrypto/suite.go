// Package sphinxcrypto implements the Sphinx crypto primitives (C1):
// shared-key derivation along a path, per-hop PRG keystream, PRP payload
// encryption, header MAC tagging, and the proof-of-relay secret chain.
//
// Grounded on packages/core/crates/core-crypto/src/{shared_keys,routing}.rs
// from the original source, translated into the capability-set shape
// core/sphinx/sphinx_ecdh_test.go expects of a Go Sphinx suite, and
// implemented with the group-arithmetic dependency (filippo.io/edwards25519)
// the teacher already depends on.
package sphinxcrypto

import "github.com/hoprnet/hopr-mixnode/internal/mixerr"

// ScalarLen and AlphaLen are fixed by the default suite's curve.
const (
	ScalarLen = 32
	AlphaLen  = 32
	// SecretLen is the size of each per-hop shared secret s_i.
	SecretLen = 32
)

// Suite is the "Sphinx suite" capability set from the design notes: a
// group operation, a scalar type, and the resulting alpha length. X25519
// (DefaultSuite) is the default and Ed25519Suite the one alternate
// implemented behind the same interface; no secp256k1 suite exists.
type Suite interface {
	// Name identifies the suite, e.g. "x25519".
	Name() string
	// AlphaLen is the serialized size of a group element (alpha).
	AlphaLen() int
	// RandomScalar returns a uniformly random non-zero scalar.
	RandomScalar() ([]byte, error)
	// ScalarBaseMult computes scalar*G, the group's base point.
	ScalarBaseMult(scalar []byte) ([]byte, error)
	// ScalarMult computes scalar*point for an arbitrary group element.
	// This must NOT clamp the scalar: the blinding recursion requires
	// raw group scalar multiplication, not a Diffie-Hellman primitive.
	ScalarMult(scalar, point []byte) ([]byte, error)
	// PublicKeyToPoint decodes a peer's public key into a group
	// element usable with ScalarMult.
	PublicKeyToPoint(pub []byte) ([]byte, error)
	// MultiplyScalars computes a*b mod group order, used to fold the
	// accumulated blinding factor (x·b0·b1·...) across hops.
	MultiplyScalars(a, b []byte) ([]byte, error)
	// ReduceScalar maps a wide (64-byte) KDF output onto a scalar mod
	// the group order, used to turn KDF_expand(s_i, α_i) into b_i.
	ReduceScalar(wide []byte) ([]byte, error)
}

// ErrInvalidSecretScalar is returned when a derived blinding factor
// reduces to zero, which the spec treats as cryptographically negligible
// but still an explicit failure.
var ErrInvalidSecretScalar = mixerr.New(mixerr.KindInvalidSecretScalar, "blinding factor reduced to zero")
