// Package security implements the replay-defense envelope around inbound
// messages: nonce generation, per-sender sequence tracking, and the
// combined ReplayGuard, grounded on internal/federation/crypto.go's
// signing/verification envelope idiom and on sap-core's crypto/replay.rs
// for exact thresholds.
package security

import (
	"fmt"

	"github.com/ocx/edge-coordinator/internal/codes"
)

// defaultValidityWindowNs is 5 seconds.
const defaultValidityWindowNs uint64 = 5_000_000_000

// defaultMaxCacheSize is the default nonce FIFO cache size.
const defaultMaxCacheSize = 10_000

// defaultMaxJump is the default max allowed sequence jump.
const defaultMaxJump uint64 = 1000

// NonceGenerator produces monotonic 64-bit nonces by interleaving a
// millisecond-scale clock component (high 32 bits) with a same-millisecond
// counter (low 32 bits).
type NonceGenerator struct {
	lastTimeNs uint64
	counter    uint32
}

// NewNonceGenerator builds a fresh generator.
func NewNonceGenerator() *NonceGenerator {
	return &NonceGenerator{}
}

// Generate returns the next nonce for currentTimeNs.
func (g *NonceGenerator) Generate(currentTimeNs uint64) uint64 {
	if currentTimeNs/1_000_000 == g.lastTimeNs/1_000_000 {
		g.counter++
	} else {
		g.counter = 0
	}
	g.lastTimeNs = currentTimeNs
	timePart := uint32(currentTimeNs / 1_000_000)
	return (uint64(timePart) << 32) | uint64(g.counter)
}

// SequenceTracker enforces strictly increasing per-sender sequence
// numbers, bounding how far a sequence may jump to guard against a
// denial-of-service via a huge out-of-range jump.
type SequenceTracker struct {
	sequences map[uint64]uint64
	maxJump   uint64
}

// NewSequenceTracker builds a tracker with the given max allowed jump.
func NewSequenceTracker(maxJump uint64) *SequenceTracker {
	return &SequenceTracker{sequences: make(map[uint64]uint64), maxJump: maxJump}
}

// NewDefaultSequenceTracker builds a tracker with the default max jump (1000).
func NewDefaultSequenceTracker() *SequenceTracker {
	return NewSequenceTracker(defaultMaxJump)
}

// CheckAndUpdate validates and records sequence for senderID. Returns true
// iff sequence is valid (strictly greater than the last seen, and within
// maxJump of it).
func (t *SequenceTracker) CheckAndUpdate(senderID, sequence uint64) bool {
	last := t.sequences[senderID]
	if sequence <= last {
		return false
	}
	if sequence > last+t.maxJump {
		return false
	}
	t.sequences[senderID] = sequence
	return true
}

// CurrentSequence returns the last accepted sequence for senderID (0 if none).
func (t *SequenceTracker) CurrentSequence(senderID uint64) uint64 {
	return t.sequences[senderID]
}

// RemoveSender forgets senderID's sequence state, e.g. on disconnect.
func (t *SequenceTracker) RemoveSender(senderID uint64) {
	delete(t.sequences, senderID)
}

// SenderCount returns the number of tracked senders.
func (t *SequenceTracker) SenderCount() int {
	return len(t.sequences)
}

// ReplayGuard combines timestamp-window, sequence, and nonce checks into
// the unified replay defense described in spec section 4.1 / design notes
// ("two-layer replay defense"): sequence alone is insufficient when
// messages legitimately arrive out of order across channels; nonce alone
// is insufficient under clock drift.
type ReplayGuard struct {
	sequences       *SequenceTracker
	nonceCache      []uint64
	nonceSeen       map[uint64]struct{}
	maxCacheSize    int
	validityWindowNs uint64
}

// NewReplayGuard builds a guard with the given nonce-cache capacity and
// message validity window.
func NewReplayGuard(maxCacheSize int, validityWindowNs uint64) *ReplayGuard {
	return &ReplayGuard{
		sequences:        NewDefaultSequenceTracker(),
		nonceCache:       make([]uint64, 0, maxCacheSize),
		nonceSeen:        make(map[uint64]struct{}, maxCacheSize),
		maxCacheSize:     maxCacheSize,
		validityWindowNs: validityWindowNs,
	}
}

// NewDefaultReplayGuard builds a guard with the spec defaults: a 10 000
// entry nonce cache and a 5 second validity window.
func NewDefaultReplayGuard() *ReplayGuard {
	return NewReplayGuard(defaultMaxCacheSize, defaultValidityWindowNs)
}

// Validate checks a message's freshness, sequence, and nonce. On success
// the nonce and sequence are recorded so the same message cannot be
// replayed. On failure it returns the specific *codes.Error for the
// violation; the coordination gRPC handlers return that error to the RPC
// caller unchanged.
func (g *ReplayGuard) Validate(senderID, nonce, sequence, timestampNs, currentTimeNs uint64) error {
	if timestampNs+g.validityWindowNs < currentTimeNs {
		return codes.New(codes.MessageExpired, "message has expired")
	}
	if timestampNs > currentTimeNs+g.validityWindowNs {
		return codes.New(codes.MessageExpired, "message timestamp is in the future")
	}
	if !g.sequences.CheckAndUpdate(senderID, sequence) {
		return codes.New(codes.InvalidSequence, fmt.Sprintf("invalid sequence %d for sender %d", sequence, senderID))
	}
	if _, dup := g.nonceSeen[nonce]; dup {
		return codes.New(codes.ReplayAttackDetected, "duplicate nonce detected")
	}
	if len(g.nonceCache) >= g.maxCacheSize {
		oldest := g.nonceCache[0]
		g.nonceCache = g.nonceCache[1:]
		delete(g.nonceSeen, oldest)
	}
	g.nonceCache = append(g.nonceCache, nonce)
	g.nonceSeen[nonce] = struct{}{}
	return nil
}
