package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/blockhash"
	"github.com/solfees-xyz/solfees-go/internal/solana"
	"github.com/solfees-xyz/solfees-go/internal/subshub"
)

func newTestReducer(t *testing.T) (*Reducer, context.CancelFunc) {
	t.Helper()
	hub := subshub.New(16)
	reducer := New(zap.NewNop().Sugar(), hub, 16)

	ctx, cancel := context.WithCancel(context.Background())
	go reducer.Run(ctx)
	t.Cleanup(cancel)

	return reducer, cancel
}

func submitAndWait(t *testing.T, reducer *Reducer, requests []Request) []Result {
	t.Helper()
	batch := NewBatch(requests)
	require.NoError(t, reducer.SubmitBatch(batch))

	select {
	case results := <-batch.ResponseC:
		return results
	case <-time.After(2 * time.Second):
		t.Fatal("reducer did not respond in time")
		return nil
	}
}

// End-to-end scenario 1 from spec.md §8.
func TestReducerScenario1(t *testing.T) {
	reducer, _ := newTestReducer(t)

	var h solana.Hash
	h[0] = 1
	reducer.PushGeyser(NewSlot(100, h, 0, 50, 99, solana.Hash{}, nil))
	reducer.PushGeyser(NewStatus(100, solana.Finalized))

	results := submitAndWait(t, reducer, []Request{{Kind: RequestLatestBlockhash, Commitment: solana.Finalized}})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, uint64(100), results[0].LatestBlockhash.ContextSlot)
	assert.Equal(t, h, results[0].LatestBlockhash.Blockhash)
	assert.Equal(t, uint64(350), results[0].LatestBlockhash.LastValidBlockHeight)
}

// End-to-end scenario 2 from spec.md §8.
func TestReducerScenario2(t *testing.T) {
	reducer, _ := newTestReducer(t)

	var h solana.Hash
	h[0] = 1
	reducer.PushGeyser(NewSlot(100, h, 0, 50, 99, solana.Hash{}, nil))
	reducer.PushGeyser(NewStatus(100, solana.Finalized))

	results := submitAndWait(t, reducer, []Request{{Kind: RequestLatestBlockhash, Commitment: solana.Finalized, Rollback: 1}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, blockhash.ErrRollbackFailed)
}

// End-to-end scenario 3 from spec.md §8.
func TestReducerScenario3(t *testing.T) {
	reducer, _ := newTestReducer(t)

	mkTx := func(unitPrice uint64) solana.TxSummary {
		return solana.TxSummary{UnitPrice: unitPrice}
	}

	reducer.PushGeyser(NewSlot(100, solana.Hash{}, 0, 1, 99, solana.Hash{}, []solana.TxSummary{
		mkTx(10), mkTx(20), mkTx(30), mkTx(40),
	}))
	reducer.PushGeyser(NewStatus(100, solana.Finalized))
	reducer.PushGeyser(NewSlot(101, solana.Hash{}, 0, 2, 100, solana.Hash{}, []solana.TxSummary{
		mkTx(5), mkTx(50), mkTx(500),
	}))
	reducer.PushGeyser(NewStatus(101, solana.Finalized))

	results := submitAndWait(t, reducer, []Request{{Kind: RequestRecentPrioritizationFees}})
	require.Len(t, results, 1)
	require.Len(t, results[0].Fees, 2)
	assert.Equal(t, uint64(10), results[0].Fees[0].PrioritizationFee)
	assert.Equal(t, uint64(5), results[0].Fees[1].PrioritizationFee)

	percentile := uint16(5000)
	results = submitAndWait(t, reducer, []Request{{Kind: RequestRecentPrioritizationFees, Percentile: &percentile}})
	require.Len(t, results[0].Fees, 2)
	assert.Equal(t, uint64(30), results[0].Fees[0].PrioritizationFee)
	assert.Equal(t, uint64(50), results[0].Fees[1].PrioritizationFee)
}

func TestReducerMinContextSlotNotReached(t *testing.T) {
	reducer, _ := newTestReducer(t)

	min := uint64(5)
	results := submitAndWait(t, reducer, []Request{{Kind: RequestSlot, Commitment: solana.Finalized, MinContextSlot: &min}})
	require.Len(t, results, 1)
	var target *ErrMinContextSlotNotReached
	require.ErrorAs(t, results[0].Err, &target)
	assert.Equal(t, uint64(0), target.ContextSlot)
}

func TestReducerCancelledBatchIsSkipped(t *testing.T) {
	reducer, _ := newTestReducer(t)

	batch := NewBatch([]Request{{Kind: RequestSlot}})
	batch.Cancelled.Store(true)
	require.NoError(t, reducer.SubmitBatch(batch))

	select {
	case <-batch.ResponseC:
		t.Fatal("cancelled batch should not receive a response")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReducerQueueFull(t *testing.T) {
	hub := subshub.New(16)
	reducer := New(zap.NewNop().Sugar(), hub, 1)
	// Do not start Run: fill the queue directly.
	require.NoError(t, reducer.SubmitBatch(NewBatch(nil)))
	err := reducer.SubmitBatch(NewBatch(nil))
	assert.ErrorIs(t, err, ErrRequestsQueueFull)
}

func TestStatusEventAdvancesWindowCommitmentInPlace(t *testing.T) {
	reducer, _ := newTestReducer(t)

	reducer.PushGeyser(NewSlot(1, solana.Hash{}, 0, 1, 0, solana.Hash{}, nil))
	reducer.PushGeyser(NewStatus(1, solana.Confirmed))

	// The fee query is answered only after both queued events have been
	// processed, and its response orders the window read below after them.
	results := submitAndWait(t, reducer, []Request{{Kind: RequestRecentPrioritizationFees}})
	require.Len(t, results[0].Fees, 1)
	assert.Equal(t, uint64(1), results[0].Fees[0].Slot)

	info, ok := reducer.window.Get(1)
	require.True(t, ok)
	assert.Equal(t, solana.Confirmed, info.Commitment)
}
