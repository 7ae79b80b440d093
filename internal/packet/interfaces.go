// Package packet implements the packet engine (C2): assembling outgoing
// meta-packets from a path and payload, and validating/unwrapping/
// re-blinding incoming ones, per §4.2.
//
// Grounded on transport/packet/src/packet.rs's MetaPacket (the
// sender-side encode and relay-side forward split) and on
// core/sphinx/sphinx_ecdh_test.go for the Go-idiom entrypoint shape
// (NewSphinx/NewPacket-style construction functions rather than the
// Rust generic-over-suite struct).
package packet

import "context"

// PathResolver resolves a chain address to the offchain routing key and
// capacity needed to build a path hop, per §6.
type PathResolver interface {
	Resolve(ctx context.Context, chainAddress string) (offchainPubKey []byte, routeCapacity int, err error)
}

// TicketProcessor is the external proof-of-relay ticketing collaborator
// invoked by the packet engine on every relay outcome, per §6 and §4.2
// step 7.
type TicketProcessor interface {
	// ProcessOutbound produces a signed outbound ticket for the next-hop
	// transmission on channel, given the network's winning probability
	// and price.
	ProcessOutbound(ctx context.Context, channel string, winningProbability float64, price uint64) ([]byte, error)
	// VerifyAndBook validates an inbound ticket together with the PoR
	// response that justifies it.
	VerifyAndBook(ctx context.Context, ticket, porResponse []byte) error
}

// ReplayFilter is the narrow capability the packet engine needs from the
// replay filter: atomic test-and-insert of a packet tag. Satisfied by
// *internal/replay.Filter.
type ReplayFilter interface {
	ContainsOrInsert(tag []byte) bool
}

// PeerTransport is byte-level send/recv to a given peer; out of scope
// for this module beyond the interface shape (§6).
type PeerTransport interface {
	Send(ctx context.Context, peer []byte, data []byte) error
}
