// Package feeindex builds the per-slot prioritization-fee percentile
// structure described in spec.md §3/§4.2: a sorted vector of unit
// prices across all non-vote transactions of one slot, plus a
// per-writable-account breakdown of the same.
package feeindex

import (
	"sort"

	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// maxPercentileBps is the basis-point ceiling used when indexing into a
// sorted fee vector; values at or above 10_000 clamp to this.
const maxPercentileBps = 9_999

// Index is the immutable, once-built fee structure for one slot.
type Index struct {
	transactionFees     []uint64
	writableAccountFees map[solana.Pubkey][]uint64
}

// Build constructs an Index from a slot's transactions in one pass,
// per spec.md §4.2. Vote transactions are excluded.
func Build(transactions []solana.TxSummary) *Index {
	idx := &Index{
		transactionFees:     make([]uint64, 0, len(transactions)),
		writableAccountFees: make(map[solana.Pubkey][]uint64, len(transactions)),
	}

	for _, tx := range transactions {
		if tx.Vote {
			continue
		}
		idx.transactionFees = append(idx.transactionFees, tx.UnitPrice)
		for _, account := range tx.Accounts.Writable {
			idx.writableAccountFees[account] = append(idx.writableAccountFees[account], tx.UnitPrice)
		}
	}

	sort.Slice(idx.transactionFees, func(i, j int) bool { return idx.transactionFees[i] < idx.transactionFees[j] })
	for _, fees := range idx.writableAccountFees {
		sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })
	}

	return idx
}

// GetPercentile implements the percentile law of spec.md §8:
// get_percentile(v, p) = v[floor(min(p,9999)*len(v)/10000)].
// It returns (0, false) when fees is empty.
func GetPercentile(fees []uint64, percentileBps uint16) (uint64, bool) {
	if len(fees) == 0 {
		return 0, false
	}
	bps := int(percentileBps)
	if bps > maxPercentileBps {
		bps = maxPercentileBps
	}
	index := bps * len(fees) / 10_000
	return fees[index], true
}

// GetWithPercentile returns the minimum (first element) when percentile
// is nil, otherwise the requested percentile, per spec.md §4.2.
func GetWithPercentile(fees []uint64, percentile *uint16) (uint64, bool) {
	if percentile == nil {
		if len(fees) == 0 {
			return 0, false
		}
		return fees[0], true
	}
	return GetPercentile(fees, *percentile)
}

// GetFee computes the fee for a request enumerating account keys:
// the global percentile, maxed with the per-account percentile of
// every listed account that has writable history in this slot;
// returns 0 if nothing was found, per spec.md §4.2.
func (idx *Index) GetFee(accountKeys []solana.Pubkey, percentile *uint16) uint64 {
	fee, _ := GetWithPercentile(idx.transactionFees, percentile)

	for _, account := range accountKeys {
		fees, ok := idx.writableAccountFees[account]
		if !ok {
			continue
		}
		if accountFee, ok := GetWithPercentile(fees, percentile); ok && accountFee > fee {
			fee = accountFee
		}
	}

	return fee
}
