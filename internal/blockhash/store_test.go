package blockhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfees-xyz/solfees-go/internal/solana"
)

func hashOf(b byte) solana.Hash {
	var h solana.Hash
	h[0] = b
	return h
}

// Scenario 1 from spec.md §8.
func TestLatestBlockhashScenario1(t *testing.T) {
	s := NewStore()
	s.PushBlock(100, 50, hashOf(1))
	s.UpdateCommitment(100, solana.Finalized)

	bh, err := s.LatestBlockhash(solana.Finalized, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bh.Slot)
	assert.Equal(t, hashOf(1), bh.Hash)
	assert.Equal(t, uint64(350), bh.LastValidBlockHeight)
}

// Scenario 2 from spec.md §8: rollback with no prior finalized slot fails.
func TestLatestBlockhashScenario2(t *testing.T) {
	s := NewStore()
	s.PushBlock(100, 50, hashOf(1))
	s.UpdateCommitment(100, solana.Finalized)

	_, err := s.LatestBlockhash(solana.Finalized, 1)
	assert.ErrorIs(t, err, ErrRollbackFailed)
}

func TestRollbackTooLarge(t *testing.T) {
	s := NewStore()
	_, err := s.LatestBlockhash(solana.Finalized, MaxRecentBlockhashes+1)
	assert.ErrorIs(t, err, ErrRollbackTooLarge)
}

// Testable property: rollback correctness (spec.md §8).
func TestRollbackCorrectness(t *testing.T) {
	s := NewStore()
	for slot := uint64(1); slot <= 10; slot++ {
		s.PushBlock(slot, slot, hashOf(byte(slot)))
		s.UpdateCommitment(slot, solana.Finalized)
	}

	// rollback=0 -> slot 10 (most recent), rollback=3 -> slot 7 (4th most recent).
	bh, err := s.LatestBlockhash(solana.Finalized, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), bh.Slot)
}

func TestUpdateCommitmentProcessedOnlyAdvancesOnIncrease(t *testing.T) {
	s := NewStore()
	s.PushBlock(10, 1, hashOf(1))
	s.PushBlock(20, 2, hashOf(2))
	s.UpdateCommitment(20, solana.Processed)
	s.UpdateCommitment(10, solana.Processed)

	assert.Equal(t, uint64(20), s.LatestSlot(solana.Processed))
}

func TestUpdateCommitmentConfirmedAdoptsLatestReported(t *testing.T) {
	s := NewStore()
	s.PushBlock(10, 1, hashOf(1))
	s.PushBlock(20, 2, hashOf(2))
	s.UpdateCommitment(20, solana.Confirmed)
	s.UpdateCommitment(10, solana.Confirmed)

	assert.Equal(t, uint64(10), s.LatestSlot(solana.Confirmed))
}

func TestEvictionDecrementsOnlyFinalizedEntries(t *testing.T) {
	s := NewStore()
	for slot := uint64(1); slot <= uint64(evictionWindow+20); slot++ {
		s.PushBlock(slot, slot, hashOf(1))
		s.UpdateCommitment(slot, solana.Finalized)
	}

	assert.LessOrEqual(t, s.finalizedTotal, evictionWindow)
	assert.LessOrEqual(t, len(s.slots), evictionWindow+1)
}

func TestIgnoresUnknownSlot(t *testing.T) {
	s := NewStore()
	s.UpdateCommitment(5, solana.Finalized)
	assert.Equal(t, uint64(0), s.LatestSlot(solana.Finalized))
}
