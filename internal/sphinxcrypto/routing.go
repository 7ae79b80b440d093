package sphinxcrypto

import (
	"crypto/rand"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// RelayerEndPrefix marks the final hop's slot, mirroring
// RELAYER_END_PREFIX in routing.rs.
const RelayerEndPrefix = 0xff

// PoRSecretLen is the size of the proof-of-relay material carried in
// each hop's routing slot.
const PoRSecretLen = 32

// RoutingInfoLen is the per-hop slot size: next-hop pubkey, the MAC the
// next hop will verify, and the PoR secret.
const RoutingInfoLen = AlphaLen + MACLen + PoRSecretLen

// HeaderLen returns H for a given MAX_HOPS and additional-last-hop-data
// length, per §3: H = last_hop_len + (MAX_HOPS-1)*routing_info_len.
func HeaderLen(maxHops, additionalLastHopLen int) int {
	return 1 + additionalLastHopLen + (maxHops-1)*RoutingInfoLen
}

// generateFiller builds the filler block so that the header length stays
// invariant for paths shorter than maxHops: each hop's keystream
// extension is pre-applied so downstream peeling exposes the same bytes
// a maxHops-length path would produce. Grounded on generate_filler in
// routing.rs ("filler is constructed from the last n-1 secrets
// iteratively XORed with their keystreams").
func generateFiller(subkeys []SubKeys, headerLen int) []byte {
	filler := make([]byte, 0, len(subkeys)*RoutingInfoLen)
	for i, sk := range subkeys {
		filler = append(filler, make([]byte, RoutingInfoLen)...)
		stream := prgKeystream(sk.PRGKey, headerLen+RoutingInfoLen)
		offset := headerLen - i*RoutingInfoLen
		window := stream[offset : offset+len(filler)]
		for j := range filler {
			filler[j] ^= window[j]
		}
	}
	return filler
}

// BuildHeader constructs the onion-masked header and the outer MAC for a
// path of secrets (one per hop, sender-ordered), per §4.2 step 5.
// additionalLastHopData is carried, unmasked-by-position, in the final
// hop's slot alongside the end marker.
func BuildHeader(maxHops int, path [][]byte, secrets [][]byte, additionalLastHopData []byte) (header, outerMAC []byte, err error) {
	n := len(secrets)
	if n == 0 || n > maxHops {
		return nil, nil, mixerr.New(mixerr.KindPathTooLong, "path length out of range")
	}
	headerLen := HeaderLen(maxHops, len(additionalLastHopData))
	subkeys := make([]SubKeys, n)
	for i, s := range secrets {
		subkeys[i] = DeriveSubKeys(s)
	}

	lastHopLen := 1 + len(additionalLastHopData)
	filler := generateFiller(subkeys[:n-1], headerLen)
	maskedLen := headerLen - len(filler)
	padLen := maskedLen - lastHopLen
	if padLen < 0 {
		return nil, nil, mixerr.New(mixerr.KindPathTooLong, "path exceeds header capacity")
	}
	pad := make([]byte, padLen)
	if _, err := rand.Read(pad); err != nil {
		return nil, nil, mixerr.Wrap(mixerr.KindKeyDerivation, "random pad", err)
	}

	// Canonical Sphinx: only the identifier/additional-data/pad portion
	// is masked with the final hop's keystream; the filler is appended
	// unmasked at the tail, since generate_filler already pre-XORed it
	// against the tail windows of every upstream hop's keystream (the
	// full-buffer XOR each earlier loop iteration below applies is what
	// "cancels" those windows back out on peel).
	plain := make([]byte, 0, maskedLen)
	plain = append(plain, RelayerEndPrefix)
	plain = append(plain, additionalLastHopData...)
	plain = append(plain, pad...)

	ks := prgKeystream(subkeys[n-1].PRGKey, headerLen+RoutingInfoLen)
	buf := make([]byte, 0, headerLen)
	buf = append(buf, xorBytes(plain, ks[:maskedLen])...)
	buf = append(buf, filler...)
	mac := computeMAC(subkeys[n-1].MACKey, buf)

	for i := n - 2; i >= 0; i-- {
		slot := make([]byte, 0, RoutingInfoLen)
		slot = append(slot, path[i+1]...)
		slot = append(slot, mac...)
		slot = append(slot, subkeys[i].PoRSecret...)

		next := make([]byte, 0, headerLen)
		next = append(next, slot...)
		next = append(next, buf[:headerLen-RoutingInfoLen]...)

		ks := prgKeystream(subkeys[i].PRGKey, headerLen+RoutingInfoLen)
		buf = xorBytes(next, ks[:headerLen])
		mac = computeMAC(subkeys[i].MACKey, buf)
	}

	return buf, mac, nil
}

// ForwardedHeader is the result of peeling one header layer.
type ForwardedHeader struct {
	Final                  bool
	AdditionalLastHopData  []byte // valid when Final
	NextHeader             []byte // valid when !Final
	NextMAC                []byte // valid when !Final
	NextHopPublicKey       []byte // valid when !Final
	PoRData                []byte
}

// ForwardHeader peels one layer off header using this hop's sub-keys,
// per §4.2 steps 2-5. additionalLastHopLen must match what the sender
// used to build the packet (typically 0, a protocol-wide constant).
func ForwardHeader(subkeys SubKeys, header, mac []byte, maxHops, additionalLastHopLen int) (*ForwardedHeader, error) {
	headerLen := HeaderLen(maxHops, additionalLastHopLen)
	if len(header) != headerLen {
		return nil, mixerr.New(mixerr.KindPacketDecoding, "header length mismatch")
	}
	if !verifyMAC(subkeys.MACKey, header, mac) {
		return nil, mixerr.New(mixerr.KindTagMismatch, "header mac mismatch")
	}
	ks := prgKeystream(subkeys.PRGKey, headerLen+RoutingInfoLen)
	unmasked := xorBytes(header, ks[:headerLen])

	if unmasked[0] == RelayerEndPrefix {
		lastHopLen := 1 + additionalLastHopLen
		return &ForwardedHeader{
			Final:                 true,
			AdditionalLastHopData: append([]byte{}, unmasked[1:lastHopLen]...),
		}, nil
	}

	slot := unmasked[:RoutingInfoLen]
	nextPub := append([]byte{}, slot[:AlphaLen]...)
	nextMAC := append([]byte{}, slot[AlphaLen:AlphaLen+MACLen]...)
	porData := append([]byte{}, slot[AlphaLen+MACLen:]...)

	tail := unmasked[RoutingInfoLen:headerLen]
	refill := ks[headerLen : headerLen+RoutingInfoLen]
	nextHeader := make([]byte, 0, headerLen)
	nextHeader = append(nextHeader, tail...)
	nextHeader = append(nextHeader, refill...)

	return &ForwardedHeader{
		Final:            false,
		NextHeader:       nextHeader,
		NextMAC:          nextMAC,
		NextHopPublicKey: nextPub,
		PoRData:          porData,
	}, nil
}
