package recentslots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfees-xyz/solfees-go/internal/solana"
)

func TestWindowBound(t *testing.T) {
	w := NewWindow()
	for slot := uint64(1); slot <= MaxNumRecentSlotInfo+50; slot++ {
		w.Insert(NewInfo(slot, solana.Hash{}, 0, slot, nil))
	}

	assert.LessOrEqual(t, w.Len(), MaxNumRecentSlotInfo)

	ascending := w.Ascending()
	require.Len(t, ascending, MaxNumRecentSlotInfo)
	// Window contains the MaxNumRecentSlotInfo largest-numbered slots seen.
	assert.Equal(t, uint64(51), ascending[0].Slot)
	assert.Equal(t, uint64(MaxNumRecentSlotInfo+50), ascending[len(ascending)-1].Slot)
}

func TestWindowAscendingOrder(t *testing.T) {
	w := NewWindow()
	w.Insert(NewInfo(5, solana.Hash{}, 0, 5, nil))
	w.Insert(NewInfo(1, solana.Hash{}, 0, 1, nil))
	w.Insert(NewInfo(3, solana.Hash{}, 0, 3, nil))

	ascending := w.Ascending()
	require.Len(t, ascending, 3)
	assert.Equal(t, []uint64{1, 3, 5}, []uint64{ascending[0].Slot, ascending[1].Slot, ascending[2].Slot})
}

func TestUpdateCommitmentInPlace(t *testing.T) {
	w := NewWindow()
	w.Insert(NewInfo(1, solana.Hash{}, 0, 1, nil))
	w.UpdateCommitment(1, solana.Finalized)

	info, ok := w.Get(1)
	require.True(t, ok)
	assert.Equal(t, solana.Finalized, info.Commitment)
}

func TestNewInfoAggregates(t *testing.T) {
	units := uint64(7)
	txs := []solana.TxSummary{
		{Vote: true, Fee: 1},
		{Vote: false, Fee: 2, UnitsConsumed: &units},
	}

	info := NewInfo(1, solana.Hash{}, 0, 1, txs)
	assert.Equal(t, 1, info.TotalTransactionsVote)
	assert.Equal(t, uint64(3), info.TotalFee)
	assert.Equal(t, uint64(7), info.TotalUnitsConsumed)
}
