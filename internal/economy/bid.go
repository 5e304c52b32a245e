package economy

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/ocx/edge-coordinator/internal/codes"
)

// BidStatus is a commit-reveal bid's lifecycle state.
type BidStatus int

const (
	BidCommitted BidStatus = iota
	BidRevealed
	BidWon
	BidLost
	BidCancelled
	BidInvalid
)

// Bid is a commit-reveal sealed bid on a VTS slot. The commit hash binds
// (amount, nonce, path_id) before the robot's true price is revealed.
type Bid struct {
	RobotID     uint64
	AmountMilli uint64
	PathID      uint64
	CommitHash  [32]byte
	Nonce       [16]byte
	TimestampNs uint64
	Status      BidStatus
}

// ComputeCommitHash implements the spec's bit-exact commit-hash formula:
// H(amount ‖ nonce ‖ path_id) via FNV-1a-64, with the least-significant 8
// bytes of the 64-bit hash placed at offset 0 of a 32-byte buffer and the
// rest zeroed.
func ComputeCommitHash(amountMilli uint64, nonce [16]byte, pathID uint64) [32]byte {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], amountMilli)
	h.Write(buf[:])
	h.Write(nonce[:])
	binary.LittleEndian.PutUint64(buf[:], pathID)
	h.Write(buf[:])

	var out [32]byte
	binary.LittleEndian.PutUint64(out[0:8], h.Sum64())
	return out
}

// NewCommittedBid builds a Bid in the Committed state from its commit
// hash; the true amount/nonce/path_id are supplied later at reveal time.
func NewCommittedBid(robotID uint64, commitHash [32]byte, timestampNs uint64) Bid {
	return Bid{RobotID: robotID, CommitHash: commitHash, TimestampNs: timestampNs, Status: BidCommitted}
}

// Reveal verifies that (amount, nonce, path_id) reproduces the bid's commit
// hash and, on success, transitions it to Revealed with those fields
// populated.
func (b Bid) Reveal(amountMilli uint64, nonce [16]byte, pathID uint64) (Bid, error) {
	if b.Status != BidCommitted {
		return b, codes.New(codes.BidHashMismatch, "bid is not in committed state")
	}
	if ComputeCommitHash(amountMilli, nonce, pathID) != b.CommitHash {
		return b, codes.New(codes.BidHashMismatch, "revealed values do not match commit hash")
	}
	b.AmountMilli = amountMilli
	b.Nonce = nonce
	b.PathID = pathID
	b.Status = BidRevealed
	return b, nil
}

// VerifyCommit reports whether amount/nonce/path_id reproduce commitHash,
// without mutating any bid state.
func VerifyCommit(commitHash [32]byte, amountMilli uint64, nonce [16]byte, pathID uint64) bool {
	return ComputeCommitHash(amountMilli, nonce, pathID) == commitHash
}
