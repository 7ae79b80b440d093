package sphinxcrypto

// ed25519Suite is the Ed25519-labeled alternate ciphersuite from the
// design notes' capability-set list. It shares x25519Suite's raw
// Edwards25519 group arithmetic (the blinding recursion needs the same
// unclamped scalar/point operations regardless of which wire label a
// peer's public key is presented under) and differs only in Name().
// Key and packet-tag derivation do not depend on the suite name, so
// both suites derive identical sub-keys from the same shared secret.
type ed25519Suite struct {
	x25519Suite
}

// Ed25519Suite is the Ed25519-labeled alternate to DefaultSuite.
var Ed25519Suite Suite = ed25519Suite{}

func (ed25519Suite) Name() string { return "ed25519" }
