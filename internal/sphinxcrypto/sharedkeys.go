package sphinxcrypto

import "github.com/hoprnet/hopr-mixnode/internal/mixerr"

// SharedKeys is the sender's view of the shared-key vector for a path:
// the initial blinded group element α₀ and one 32-byte secret per hop.
// Grounded on SharedKeys::generate in shared_keys.rs.
type SharedKeys struct {
	Alpha0  []byte
	Secrets [][]byte
}

// GenerateSharedKeys derives (α₀, [s₀…s_{n-1}]) for an ordered path of
// hop public keys, per §3's shared-key vector construction:
//
//	α₀ = x·G
//	s_i = KDF_extract(x·b₀·…·b_{i-1}·P_i)
//	b_i = KDF_expand(s_i, α_i)
//	α_{i+1} = b_i·α_i
func GenerateSharedKeys(suite Suite, path [][]byte) (*SharedKeys, error) {
	if len(path) == 0 {
		return nil, mixerr.New(mixerr.KindPathTooLong, "empty path")
	}
	x, err := suite.RandomScalar()
	if err != nil {
		return nil, err
	}
	alpha, err := suite.ScalarBaseMult(x)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "alpha0", err)
	}
	acc := x
	secrets := make([][]byte, 0, len(path))
	curAlpha := alpha
	for i, pub := range path {
		point, err := suite.PublicKeyToPoint(pub)
		if err != nil {
			return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "invalid public key on path", err)
		}
		sharedPoint, err := suite.ScalarMult(acc, point)
		if err != nil {
			return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "shared point", err)
		}
		s := deriveKey(labelSecret, sharedPoint, SecretLen)
		secrets = append(secrets, s)

		if i == len(path)-1 {
			break
		}

		wide := deriveKey(labelBlinding, append(append([]byte{}, s...), curAlpha...), 64)
		b, err := suite.ReduceScalar(wide)
		if err != nil {
			return nil, err
		}
		nextAlpha, err := suite.ScalarMult(b, curAlpha)
		if err != nil {
			return nil, mixerr.Wrap(mixerr.KindKeyDerivation, "next alpha", err)
		}
		acc, err = suite.MultiplyScalars(acc, b)
		if err != nil {
			return nil, err
		}
		curAlpha = nextAlpha
	}
	return &SharedKeys{Alpha0: alpha, Secrets: secrets}, nil
}

// ForwardTransform reproduces one hop's view of the shared-key recursion:
// given this node's private scalar and the incoming α, derive the shared
// secret s and the next α to forward. Grounded on
// SharedKeys::forward_transform in shared_keys.rs.
func ForwardTransform(suite Suite, priv, alpha []byte) (secret, nextAlpha []byte, err error) {
	sharedPoint, err := suite.ScalarMult(priv, alpha)
	if err != nil {
		return nil, nil, mixerr.Wrap(mixerr.KindKeyDerivation, "forward shared point", err)
	}
	s := deriveKey(labelSecret, sharedPoint, SecretLen)
	wide := deriveKey(labelBlinding, append(append([]byte{}, s...), alpha...), 64)
	b, err := suite.ReduceScalar(wide)
	if err != nil {
		return nil, nil, err
	}
	next, err := suite.ScalarMult(b, alpha)
	if err != nil {
		return nil, nil, mixerr.Wrap(mixerr.KindKeyDerivation, "forward next alpha", err)
	}
	return s, next, nil
}

// SubKeys are the deterministic per-hop derivations from one shared
// secret s_i: PRG keystream key, PRP permutation key, MAC key, replay
// packet tag, and proof-of-relay seed.
type SubKeys struct {
	PRGKey    []byte
	PRPKey    []byte
	MACKey    []byte
	PacketTag []byte
	PoRSecret []byte
}

// DeriveSubKeys computes all sub-keys for one hop's shared secret.
func DeriveSubKeys(secret []byte) SubKeys {
	return SubKeys{
		PRGKey:    deriveKey(labelPRGKey, secret, 32),
		PRPKey:    deriveKey(labelPRPKey, secret, 48), // aez key size
		MACKey:    deriveKey(labelMACKey, secret, 32),
		PacketTag: deriveKey(labelPacketTag, secret, 16),
		PoRSecret: deriveKey(labelPoRSecret, secret, 32),
	}
}
