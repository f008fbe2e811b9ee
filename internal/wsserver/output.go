package wsserver

import (
	"github.com/solfees-xyz/solfees-go/internal/recentslots"
	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// StatusOutput is the SlotsSubscribe push for a commitment advance.
type StatusOutput struct {
	Type       string                 `json:"type"`
	Slot       uint64                 `json:"slot"`
	Commitment solana.CommitmentLevel `json:"commitment"`
}

// SlotOutput is the SlotsSubscribe push for a new or updated slot,
// filtered through one subscriber's Filter. fee_average/fee_levels
// come from each matching transaction's lamport Fee, not its
// UnitPrice — getRecentPrioritizationFees and this stream report two
// different quantities over the same transaction set (spec.md §4.6).
type SlotOutput struct {
	Type                      string   `json:"type"`
	Identity                  string   `json:"identity"`
	Slot                      uint64   `json:"slot"`
	Hash                      string   `json:"hash"`
	Time                      int64    `json:"time"`
	Height                    uint64   `json:"height"`
	TotalTransactionsFiltered int      `json:"totalTransactionsFiltered"`
	TotalTransactionsVote     int      `json:"totalTransactionsVote"`
	TotalTransactions         int      `json:"totalTransactions"`
	FeeAverage                float64  `json:"feeAverage"`
	FeeLevels                 []*uint64 `json:"feeLevels"`
	TotalFee                  uint64   `json:"totalFee"`
	TotalUnitsConsumed        uint64   `json:"totalUnitsConsumed"`
}

// zeroIdentity is reported in place of a validator identity pubkey:
// this service has no identity of its own to report, and the upstream
// protocol never resolved what value a non-validator server should
// send here.
var zeroIdentity solana.Pubkey

// GetFiltered computes a SlotOutput for info through filter, matching
// the original get_filtered exactly: non-vote transactions touching
// every required account, an unweighted mean of their Fee, and a
// sorted-percentile lookup per requested level.
func GetFiltered(info *recentslots.Info, filter Filter) SlotOutput {
	fees := make([]uint64, 0, len(info.Transactions))
	for _, tx := range info.Transactions {
		if tx.Vote {
			continue
		}
		if !filter.matches(tx.Accounts) {
			continue
		}
		fees = append(fees, tx.Fee)
	}

	totalFiltered := len(fees)
	var feeAverage float64
	if totalFiltered > 0 {
		var sum uint64
		for _, fee := range fees {
			sum += fee
		}
		feeAverage = float64(sum) / float64(totalFiltered)
	}

	var feeLevels []*uint64
	if len(filter.Levels) > 0 {
		sortUint64(fees)
		feeLevels = make([]*uint64, len(filter.Levels))
		for i, level := range filter.Levels {
			if value, ok := percentileOf(fees, level); ok {
				v := value
				feeLevels[i] = &v
			}
		}
	} else {
		feeLevels = []*uint64{}
	}

	return SlotOutput{
		Type:                      "slot",
		Identity:                  zeroIdentity.String(),
		Slot:                      info.Slot,
		Hash:                      info.Hash.String(),
		Time:                      info.Time,
		Height:                    info.Height,
		TotalTransactionsFiltered: totalFiltered,
		TotalTransactionsVote:     info.TotalTransactionsVote,
		TotalTransactions:         len(info.Transactions),
		FeeAverage:                feeAverage,
		FeeLevels:                 feeLevels,
		TotalFee:                  info.TotalFee,
		TotalUnitsConsumed:        info.TotalUnitsConsumed,
	}
}

// percentileOf mirrors RecentPrioritizationFeesSlot::get_percentile:
// index = min(percentile, 9999) * len / 10000, on an already-sorted
// slice.
func percentileOf(sorted []uint64, percentileBps uint16) (uint64, bool) {
	if len(sorted) == 0 {
		return 0, false
	}
	p := int(percentileBps)
	if p > 9_999 {
		p = 9_999
	}
	index := p * len(sorted) / 10_000
	return sorted[index], true
}
