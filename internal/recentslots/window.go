// Package recentslots implements the bounded recent-slot window
// described in spec.md §3/§4.3, and the per-slot SlotInfo snapshot that
// is built once and shared immutably with subscribers and fee readers.
package recentslots

import (
	"sort"

	"github.com/solfees-xyz/solfees-go/internal/feeindex"
	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// MaxNumRecentSlotInfo is the hard cap on the window's size.
const MaxNumRecentSlotInfo = 150

// Info is the immutable per-slot snapshot held in the window and
// broadcast to subscribers. Everything but Commitment is fixed at
// construction; Commitment is mutated in place by the reducer on a
// commitment advance (spec.md §4.3, §4.4).
type Info struct {
	Slot       uint64
	Hash       solana.Hash
	Time       int64
	Height     uint64
	Commitment solana.CommitmentLevel

	Transactions []solana.TxSummary
	Fees         *feeindex.Index

	TotalTransactionsVote int
	TotalFee              uint64
	TotalUnitsConsumed    uint64
}

// NewInfo builds a SlotInfo snapshot from a slot's raw transactions,
// eagerly building the fee index and precomputed aggregates, per
// spec.md §3 and §4.4.
func NewInfo(slot uint64, hash solana.Hash, t int64, height uint64, transactions []solana.TxSummary) *Info {
	voteCount := 0
	var totalFee, totalUnits uint64
	for _, tx := range transactions {
		if tx.Vote {
			voteCount++
		}
		totalFee += tx.Fee
		totalUnits += tx.UnitsConsumedOrZero()
	}

	return &Info{
		Slot:                  slot,
		Hash:                  hash,
		Time:                  t,
		Height:                height,
		Commitment:            solana.Processed,
		Transactions:          transactions,
		Fees:                  feeindex.Build(transactions),
		TotalTransactionsVote: voteCount,
		TotalFee:              totalFee,
		TotalUnitsConsumed:    totalUnits,
	}
}

// Window is the ordered map slot -> Info, capped at MaxNumRecentSlotInfo.
// Not safe for concurrent use: all mutation happens from the single
// ingest reducer (spec.md §5).
type Window struct {
	slots map[uint64]*Info
	order []uint64 // ascending
}

// NewWindow returns an empty recent-slots window.
func NewWindow() *Window {
	return &Window{slots: make(map[uint64]*Info)}
}

// Insert adds info to the window, evicting the lowest-numbered slots
// until the cap holds, per spec.md §3/§4.3.
func (w *Window) Insert(info *Info) {
	if _, exists := w.slots[info.Slot]; !exists {
		w.order = append(w.order, info.Slot)
		sort.Slice(w.order, func(i, j int) bool { return w.order[i] < w.order[j] })
	}
	w.slots[info.Slot] = info

	for len(w.order) > MaxNumRecentSlotInfo {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.slots, oldest)
	}
}

// Get returns the slot info for slot, if present.
func (w *Window) Get(slot uint64) (*Info, bool) {
	info, ok := w.slots[slot]
	return info, ok
}

// UpdateCommitment advances the commitment of slot in place, if present.
func (w *Window) UpdateCommitment(slot uint64, commitment solana.CommitmentLevel) {
	if info, ok := w.slots[slot]; ok {
		info.Commitment = commitment
	}
}

// Ascending returns every slot info currently in the window, ordered by
// ascending slot number, per spec.md §4.4 (RecentPrioritizationFees).
func (w *Window) Ascending() []*Info {
	out := make([]*Info, 0, len(w.order))
	for _, slot := range w.order {
		out = append(out, w.slots[slot])
	}
	return out
}

// Len returns the number of slots currently held.
func (w *Window) Len() int {
	return len(w.order)
}
