package packet

import (
	"bytes"
	"context"

	"github.com/hoprnet/hopr-mixnode/internal/metrics"
	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
	"github.com/hoprnet/hopr-mixnode/internal/sphinxcrypto"
)

// PaddingTagLen and PaddingTag delimit the zero-padding prepended ahead
// of every payload, per §4.2 step 3. The tag is scanned for on the final
// hop to recover the original plaintext without carrying its length on
// the wire. Grounded on packet.rs's add_padding/remove_padding.
const PaddingTagLen = 4

var PaddingTag = []byte("HOPR")

// addPadding prepends zero bytes and the padding tag so the result is
// exactly payloadSize bytes long.
func addPadding(payloadSize int, plaintext []byte) ([]byte, error) {
	need := PaddingTagLen + len(plaintext)
	if need > payloadSize {
		return nil, mixerr.New(mixerr.KindPayloadTooLong, "plaintext exceeds payload size")
	}
	out := make([]byte, payloadSize)
	zerosLen := payloadSize - need
	copy(out[zerosLen:], PaddingTag)
	copy(out[zerosLen+PaddingTagLen:], plaintext)
	return out, nil
}

// removePadding locates the padding tag and returns everything after it.
// The tag cannot occur inside the all-zero prefix, so the first match is
// always the genuine boundary.
func removePadding(padded []byte) ([]byte, error) {
	idx := bytes.Index(padded, PaddingTag)
	if idx < 0 {
		return nil, mixerr.New(mixerr.KindPacketDecoding, "padding tag not found")
	}
	return append([]byte{}, padded[idx+PaddingTagLen:]...), nil
}

// Final is the outcome when this node is the last hop: the original
// plaintext has been fully unwrapped. PoRData is always
// sphinxcrypto.PoRLastHopConstant: the final hop has no downstream hop
// to challenge, so its proof-of-relay slot is the fixed sentinel value
// rather than a per-packet secret, matching §4.1's "the last hop's PoR
// slot is a constant".
type Final struct {
	PlainText      []byte
	AdditionalData []byte
	Tag            []byte
	PoRData        []byte
}

// Forwarded is the outcome when this node must relay the packet onward.
type Forwarded struct {
	MetaPacket       []byte
	NextHopPublicKey []byte
	Tag              []byte
	PoRData          []byte
}

// Outcome is the tagged union Forward produces: exactly one of Final or
// Forwarded is set. Acknowledgement batches are not an Outcome; they are
// (de)serialized separately in acks.go.
type Outcome struct {
	Final     *Final
	Forwarded *Forwarded
}

// Encode builds a meta-packet for path (ordered list of hop public
// keys, length <= maxHops) carrying plaintext, per §4.2's encode
// operation: derive the shared-key vector, pad and onion-encrypt the
// payload in reverse hop order, then build the masked header.
func Encode(suite sphinxcrypto.Suite, maxHops, payloadSize int, path [][]byte, plaintext []byte) ([]byte, error) {
	if len(path) == 0 || len(path) > maxHops {
		return nil, mixerr.New(mixerr.KindPathTooLong, "path length out of range")
	}
	keys, err := sphinxcrypto.GenerateSharedKeys(suite, path)
	if err != nil {
		return nil, err
	}

	payload, err := addPadding(payloadSize, plaintext)
	if err != nil {
		return nil, err
	}

	subkeys := make([]sphinxcrypto.SubKeys, len(keys.Secrets))
	for i, s := range keys.Secrets {
		subkeys[i] = sphinxcrypto.DeriveSubKeys(s)
	}
	// Nest onion layers by applying each hop's PRP in reverse path order,
	// so the first hop to decrypt peels the outermost layer.
	for i := len(subkeys) - 1; i >= 0; i-- {
		payload = prpForward(subkeys[i], payload)
	}

	header, mac, err := sphinxcrypto.BuildHeader(maxHops, path, keys.Secrets, nil)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, sphinxcrypto.AlphaLen+len(header)+sphinxcrypto.MACLen+len(payload))
	out = append(out, keys.Alpha0...)
	out = append(out, header...)
	out = append(out, mac...)
	out = append(out, payload...)
	return out, nil
}

// prpForward is a thin adapter for the packet package since the PRP
// primitives in sphinxcrypto are unexported; it re-derives nothing, it
// simply applies the sub-key's PRP key via sphinxcrypto's exported
// PayloadPRPForward/PayloadPRPInverse helpers.
func prpForward(sk sphinxcrypto.SubKeys, payload []byte) []byte {
	return sphinxcrypto.PayloadPRPForward(sk.PRPKey, payload)
}

func prpInverse(sk sphinxcrypto.SubKeys, payload []byte) []byte {
	return sphinxcrypto.PayloadPRPInverse(sk.PRPKey, payload)
}

// Forward validates, unwraps one onion layer of, and classifies an
// incoming meta-packet, per §4.2's forward/decode operation. priv is
// this node's packet private key. The replay filter is consulted before
// the result is classified Final or Forwarded, so a replayed packet
// never reaches the application layer or a second relay hop.
func Forward(suite sphinxcrypto.Suite, maxHops, payloadSize int, priv []byte, raw []byte, rf ReplayFilter, pc *metrics.PacketCounters) (*Outcome, error) {
	headerLen := sphinxcrypto.HeaderLen(maxHops, 0)
	wantLen := sphinxcrypto.AlphaLen + headerLen + sphinxcrypto.MACLen + payloadSize
	if len(raw) != wantLen {
		bumpDecodingErrors(pc)
		return nil, mixerr.New(mixerr.KindPacketDecoding, "meta-packet length mismatch")
	}

	alpha := raw[:sphinxcrypto.AlphaLen]
	header := raw[sphinxcrypto.AlphaLen : sphinxcrypto.AlphaLen+headerLen]
	mac := raw[sphinxcrypto.AlphaLen+headerLen : sphinxcrypto.AlphaLen+headerLen+sphinxcrypto.MACLen]
	payload := append([]byte{}, raw[sphinxcrypto.AlphaLen+headerLen+sphinxcrypto.MACLen:]...)

	secret, nextAlpha, err := sphinxcrypto.ForwardTransform(suite, priv, alpha)
	if err != nil {
		bumpDecodingErrors(pc)
		return nil, err
	}
	subkeys := sphinxcrypto.DeriveSubKeys(secret)

	fwd, err := sphinxcrypto.ForwardHeader(subkeys, header, mac, maxHops, 0)
	if err != nil {
		if pc != nil {
			pc.TagMismatch.Inc()
		}
		return nil, err
	}

	if rf != nil && rf.ContainsOrInsert(subkeys.PacketTag) {
		if pc != nil {
			pc.Replayed.Inc()
		}
		return nil, mixerr.New(mixerr.KindReplay, "packet tag already seen")
	}

	payload = prpInverse(subkeys, payload)

	if fwd.Final {
		plain, err := removePadding(payload)
		if err != nil {
			bumpDecodingErrors(pc)
			return nil, err
		}
		if pc != nil {
			pc.DeliveredFinal.Inc()
		}
		return &Outcome{Final: &Final{
			PlainText:      plain,
			AdditionalData: fwd.AdditionalLastHopData,
			Tag:            subkeys.PacketTag,
			PoRData:        sphinxcrypto.PoRLastHopConstant,
		}}, nil
	}

	next := make([]byte, 0, wantLen)
	next = append(next, nextAlpha...)
	next = append(next, fwd.NextHeader...)
	next = append(next, fwd.NextMAC...)
	next = append(next, payload...)

	if pc != nil {
		pc.Forwarded.Inc()
	}
	return &Outcome{Forwarded: &Forwarded{
		MetaPacket:       next,
		NextHopPublicKey: fwd.NextHopPublicKey,
		Tag:              subkeys.PacketTag,
		PoRData:          fwd.PoRData,
	}}, nil
}

func bumpDecodingErrors(pc *metrics.PacketCounters) {
	if pc != nil {
		pc.DecodingErrors.Inc()
	}
}

// ForwardWithTicketing wraps Forward with a ticket-processor call: on a
// Relay outcome, tp.ProcessOutbound is called with channel,
// winningProbability and price to mint the signed outbound ticket for
// the next-hop transmission. The hop's proof-of-relay data is not passed
// to tp; it is only returned in outcome.Forwarded.PoRData. A Final
// outcome or a nil tp skips ticketing entirely. An error from tp is
// returned wrapped in a KindTicketValidation error, so callers can apply
// §7's drop-and-notify policy.
func ForwardWithTicketing(
	ctx context.Context,
	suite sphinxcrypto.Suite, maxHops, payloadSize int,
	priv []byte, raw []byte, rf ReplayFilter, pc *metrics.PacketCounters,
	tp TicketProcessor, channel string, winningProbability float64, price uint64,
) (outcome *Outcome, ticket []byte, err error) {
	outcome, err = Forward(suite, maxHops, payloadSize, priv, raw, rf, pc)
	if err != nil {
		return nil, nil, err
	}
	if outcome.Forwarded == nil || tp == nil {
		return outcome, nil, nil
	}
	ticket, err = tp.ProcessOutbound(ctx, channel, winningProbability, price)
	if err != nil {
		return nil, nil, mixerr.Wrap(mixerr.KindTicketValidation, "process outbound ticket", err)
	}
	return outcome, ticket, nil
}
