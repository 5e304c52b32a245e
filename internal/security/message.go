package security

import "github.com/ocx/edge-coordinator/internal/spacetime"

// Signature is a 64-byte signature slot. The all-zero signature means
// "unsigned".
type Signature [64]byte

// IsSigned reports whether sig is non-zero.
func (sig Signature) IsSigned() bool {
	return sig != Signature{}
}

// SignedMessage is the generic signed-message envelope: payload, signer
// public key, signature, nonce, sequence, and timestamp.
type SignedMessage[T any] struct {
	Payload     T
	SignerKey   [32]byte
	Signature   Signature
	Nonce       uint64
	Sequence    uint64
	TimestampNs uint64
}

// RobotID derives the sending robot's identity from SignerKey via
// FNV-1a-64, matching internal/spacetime.RobotIDFromPublicKey.
func (m SignedMessage[T]) RobotID() uint64 {
	return spacetime.RobotIDFromPublicKey(m.SignerKey)
}
