package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/edge-coordinator/internal/codes"
)

func TestComputeCommitHashIsDeterministic(t *testing.T) {
	nonce := [16]byte{1, 2, 3}
	h1 := ComputeCommitHash(500, nonce, 7)
	h2 := ComputeCommitHash(500, nonce, 7)
	assert.Equal(t, h1, h2)
}

func TestComputeCommitHashDiffersOnAmount(t *testing.T) {
	nonce := [16]byte{1, 2, 3}
	h1 := ComputeCommitHash(500, nonce, 7)
	h2 := ComputeCommitHash(501, nonce, 7)
	assert.NotEqual(t, h1, h2)
}

func TestBidRevealSucceedsWithMatchingValues(t *testing.T) {
	nonce := [16]byte{9, 9, 9}
	commit := ComputeCommitHash(1000, nonce, 3)
	bid := NewCommittedBid(1, commit, 100)

	revealed, err := bid.Reveal(1000, nonce, 3)
	require.NoError(t, err)
	assert.Equal(t, BidRevealed, revealed.Status)
	assert.Equal(t, uint64(1000), revealed.AmountMilli)
}

func TestBidRevealFailsOnMismatchedValues(t *testing.T) {
	nonce := [16]byte{9, 9, 9}
	commit := ComputeCommitHash(1000, nonce, 3)
	bid := NewCommittedBid(1, commit, 100)

	_, err := bid.Reveal(999, nonce, 3)
	require.Error(t, err)
	assert.Equal(t, codes.BidHashMismatch, err.(*codes.Error).Code)
}

func TestBidRevealFailsWhenNotCommitted(t *testing.T) {
	nonce := [16]byte{9, 9, 9}
	commit := ComputeCommitHash(1000, nonce, 3)
	bid := NewCommittedBid(1, commit, 100)
	bid.Status = BidRevealed

	_, err := bid.Reveal(1000, nonce, 3)
	require.Error(t, err)
	assert.Equal(t, codes.BidHashMismatch, err.(*codes.Error).Code)
}

func TestVerifyCommitWithoutMutatingState(t *testing.T) {
	nonce := [16]byte{4, 5, 6}
	commit := ComputeCommitHash(250, nonce, 1)

	assert.True(t, VerifyCommit(commit, 250, nonce, 1))
	assert.False(t, VerifyCommit(commit, 251, nonce, 1))
}
