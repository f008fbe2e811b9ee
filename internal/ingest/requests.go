package ingest

import (
	"sync/atomic"

	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// RequestKind tags a Request's variant.
type RequestKind int

const (
	RequestLatestBlockhash RequestKind = iota
	RequestSlot
	RequestRecentPrioritizationFees
)

// Request is one sub-request within a client's batch, per spec.md §4.4.
// Exactly one field group is meaningful, selected by Kind.
type Request struct {
	Kind RequestKind

	// LatestBlockhash / Slot fields.
	Commitment     solana.CommitmentLevel
	Rollback       int
	MinContextSlot *uint64

	// RecentPrioritizationFees fields.
	Pubkeys    []solana.Pubkey
	Percentile *uint16
}

// ErrMinContextSlotNotReached carries the current latest slot so the
// caller can build the JSON-RPC custom-error response (§7).
type ErrMinContextSlotNotReached struct {
	ContextSlot uint64
}

func (e *ErrMinContextSlotNotReached) Error() string {
	return "min context slot not reached"
}

// PrioritizationFee is one entry of a RecentPrioritizationFees result.
type PrioritizationFee struct {
	Slot              uint64
	PrioritizationFee uint64
}

// LatestBlockhashResult is the successful result of a LatestBlockhash
// request.
type LatestBlockhashResult struct {
	ContextSlot          uint64
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Result is one sub-request's outcome: exactly one of Err, Slot,
// LatestBlockhash or Fees is populated.
type Result struct {
	Err error

	Slot           uint64
	LatestBlockhash LatestBlockhashResult
	Fees           []PrioritizationFee
}

// Batch is one HTTP request's worth of sub-requests, queued together
// through the bounded reducer channel, per spec.md §4.5.
type Batch struct {
	Requests  []Request
	Cancelled *atomic.Bool
	ResponseC chan []Result
}

// NewBatch allocates a Batch ready to submit to a Reducer.
func NewBatch(requests []Request) *Batch {
	return &Batch{
		Requests:  requests,
		Cancelled: &atomic.Bool{},
		ResponseC: make(chan []Result, 1),
	}
}
