// Package ingest implements the single-writer reducer task of spec.md
// §4.4: it consumes upstream Geyser-style events and client request
// batches, owns the three core stores exclusively, and publishes
// UpdateNotice values to the subscription hub.
package ingest

import "github.com/solfees-xyz/solfees-go/internal/solana"

// GeyserMessageKind tags a GeyserMessage's variant.
type GeyserMessageKind int

const (
	GeyserStatus GeyserMessageKind = iota
	GeyserSlot
)

// GeyserMessage is one upstream event, per spec.md §6. Exactly one of
// the Status/Slot field groups is meaningful, selected by Kind — the Go
// analogue of the original's Rust enum.
type GeyserMessage struct {
	Kind GeyserMessageKind

	// Status fields.
	StatusSlot       uint64
	StatusCommitment solana.CommitmentLevel

	// Slot fields.
	SlotSlot         uint64
	SlotHash         solana.Hash
	SlotTime         int64
	SlotHeight       uint64
	SlotParentSlot   uint64
	SlotParentHash   solana.Hash
	SlotTransactions []solana.TxSummary
}

// NewStatus builds a Status event.
func NewStatus(slot uint64, commitment solana.CommitmentLevel) GeyserMessage {
	return GeyserMessage{Kind: GeyserStatus, StatusSlot: slot, StatusCommitment: commitment}
}

// NewSlot builds a Slot event.
func NewSlot(slot uint64, hash solana.Hash, t int64, height, parentSlot uint64, parentHash solana.Hash, txs []solana.TxSummary) GeyserMessage {
	return GeyserMessage{
		Kind:             GeyserSlot,
		SlotSlot:         slot,
		SlotHash:         hash,
		SlotTime:         t,
		SlotHeight:       height,
		SlotParentSlot:   parentSlot,
		SlotParentHash:   parentHash,
		SlotTransactions: txs,
	}
}

// Source is the upstream ingest collaborator (spec.md §1/§6): an
// external gRPC Geyser feed in production. The core only depends on
// this interface; a live gRPC client and a Redis side-channel are
// external collaborators outside the core's scope.
type Source interface {
	// Messages returns the channel of upstream events. A closed channel,
	// or a received value with Done()==true, is the shutdown sentinel.
	Messages() <-chan GeyserEnvelope
}

// GeyserEnvelope wraps a GeyserMessage with an explicit Done marker so
// Source implementations can signal shutdown without closing their
// channel from a different goroutine than the one producing it.
type GeyserEnvelope struct {
	Message GeyserMessage
	done    bool
}

// Done reports whether this envelope is the shutdown sentinel.
func (e GeyserEnvelope) Done() bool { return e.done }

// DoneEnvelope is the shutdown sentinel value.
func DoneEnvelope() GeyserEnvelope { return GeyserEnvelope{done: true} }
