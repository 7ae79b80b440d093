// Package keystore implements the node's KeyStore capability, holding
// private key material in locked, non-swappable memory the way the
// teacher codebase guards long-lived secrets.
package keystore

import (
	"github.com/awnumar/memguard"

	"github.com/hoprnet/hopr-mixnode/internal/mixerr"
)

// KeyStore is the abstract capability the packet engine depends on to
// obtain this node's private key material. It never exposes raw key
// bytes longer than needed for a single crypto operation.
type KeyStore interface {
	// PacketPrivateKey returns the node's Sphinx private key scalar.
	PacketPrivateKey() ([]byte, error)
	// ChainPrivateKey returns the node's on-chain signing key, used by
	// the ticket processor.
	ChainPrivateKey() ([]byte, error)
	// Close releases any locked memory held by the store.
	Close()
}

// MemguardKeyStore is a KeyStore backed by memguard.LockedBuffer, so the
// private scalars never land in swappable or core-dumped memory.
type MemguardKeyStore struct {
	packetKey *memguard.LockedBuffer
	chainKey  *memguard.LockedBuffer
}

// New constructs a MemguardKeyStore by copying and locking the given key
// material. The caller's copies should be wiped after this call returns.
func New(packetKey, chainKey []byte) (*MemguardKeyStore, error) {
	if len(packetKey) == 0 {
		return nil, mixerr.New(mixerr.KindKeyStore, "empty packet private key")
	}
	ks := &MemguardKeyStore{
		packetKey: memguard.NewBufferFromBytes(packetKey),
	}
	if len(chainKey) > 0 {
		ks.chainKey = memguard.NewBufferFromBytes(chainKey)
	}
	return ks, nil
}

func (ks *MemguardKeyStore) PacketPrivateKey() ([]byte, error) {
	if ks.packetKey == nil || !ks.packetKey.IsAlive() {
		return nil, mixerr.New(mixerr.KindKeyStore, "packet key unavailable")
	}
	out := make([]byte, ks.packetKey.Size())
	copy(out, ks.packetKey.Bytes())
	return out, nil
}

func (ks *MemguardKeyStore) ChainPrivateKey() ([]byte, error) {
	if ks.chainKey == nil || !ks.chainKey.IsAlive() {
		return nil, mixerr.New(mixerr.KindKeyStore, "chain key unavailable")
	}
	out := make([]byte, ks.chainKey.Size())
	copy(out, ks.chainKey.Bytes())
	return out, nil
}

func (ks *MemguardKeyStore) Close() {
	if ks.packetKey != nil {
		ks.packetKey.Destroy()
	}
	if ks.chainKey != nil {
		ks.chainKey.Destroy()
	}
}
