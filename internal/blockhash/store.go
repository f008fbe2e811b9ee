// Package blockhash implements the rolling per-slot blockhash table
// described in spec.md §3/§4.1: a mapping from slot number to its hash,
// height and commitment, indexed for quick "latest at commitment C"
// lookup with bounded rollback.
package blockhash

import (
	"errors"

	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// MaxRecentBlockhashes mirrors Solana's own constant: the number of
// finalized blockhashes a transaction may reference before it expires.
const MaxRecentBlockhashes = 300

// evictionWindow is the finalized-entry budget before the store starts
// dropping its oldest slots; ten slots of slack over MaxRecentBlockhashes
// matches the original implementation.
const evictionWindow = MaxRecentBlockhashes + 10

// Slot is one entry in the store.
type Slot struct {
	Hash       solana.Hash
	Height     uint64
	Commitment solana.CommitmentLevel
}

// Store is the rolling blockhash table. It is not safe for concurrent
// use: all mutation happens from the single ingest reducer (spec.md §5).
type Store struct {
	slots          map[uint64]*Slot
	order          []uint64 // ascending slot numbers currently present
	finalizedTotal int

	latestProcessed uint64
	latestConfirmed uint64
	latestFinalized uint64
}

// NewStore returns an empty blockhash store.
func NewStore() *Store {
	return &Store{slots: make(map[uint64]*Slot)}
}

// PushBlock inserts or overwrites slot with an initial commitment of
// Processed, per spec.md §4.1.
func (s *Store) PushBlock(slot uint64, height uint64, hash solana.Hash) {
	if _, exists := s.slots[slot]; !exists {
		s.order = append(s.order, slot)
	}
	s.slots[slot] = &Slot{Hash: hash, Height: height, Commitment: solana.Processed}
}

// UpdateCommitment advances slot's commitment if the slot is present,
// updates the cached latest-slot fields, and runs eviction. Unknown
// slots are ignored (the original silently drops status updates for
// slots it never saw a Slot event for).
func (s *Store) UpdateCommitment(slot uint64, commitment solana.CommitmentLevel) {
	if value, ok := s.slots[slot]; ok {
		wasFinalized := value.Commitment == solana.Finalized
		value.Commitment = commitment

		switch commitment {
		case solana.Processed:
			if slot > s.latestProcessed {
				s.latestProcessed = slot
			}
		case solana.Confirmed:
			s.latestConfirmed = slot
		case solana.Finalized:
			if !wasFinalized {
				s.finalizedTotal++
			}
			s.latestFinalized = slot
		}
	}

	s.evict()
}

// evict removes the oldest entries one at a time until the number of
// Finalized entries is within evictionWindow, per spec.md §3.
func (s *Store) evict() {
	for s.finalizedTotal > evictionWindow && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		value, ok := s.slots[oldest]
		if !ok {
			continue
		}
		delete(s.slots, oldest)
		if value.Commitment == solana.Finalized {
			s.finalizedTotal--
		}
	}
}

// LatestSlot returns the cached latest slot number for a commitment
// level.
func (s *Store) LatestSlot(commitment solana.CommitmentLevel) uint64 {
	switch commitment {
	case solana.Processed:
		return s.latestProcessed
	case solana.Confirmed:
		return s.latestConfirmed
	default:
		return s.latestFinalized
	}
}

// ErrRollbackTooLarge is returned when a caller asks for more rollback
// steps than MaxRecentBlockhashes allows.
var ErrRollbackTooLarge = errors.New("rollback exceeds MaxRecentBlockhashes")

// ErrRollbackFailed is returned when the rollback walk runs out of
// entries before satisfying the requested number of steps.
var ErrRollbackFailed = errors.New("failed to rollback block")

// ErrNoEntryForSlot is returned when the store has no record at all
// for the commitment's cached latest slot; this only happens before
// the store has observed its first slot at that commitment.
var ErrNoEntryForSlot = errors.New("no blockhash entry for slot")

// Blockhash is the result of a latest-blockhash lookup.
type Blockhash struct {
	Slot                 uint64
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// LatestBlockhash resolves the latest blockhash at commitment, walking
// back `rollback` matching entries, per spec.md §4.1.
func (s *Store) LatestBlockhash(commitment solana.CommitmentLevel, rollback int) (Blockhash, error) {
	if rollback > MaxRecentBlockhashes {
		return Blockhash{}, ErrRollbackTooLarge
	}

	slot := s.LatestSlot(commitment)
	value, ok := s.slots[slot]
	if !ok {
		return Blockhash{}, ErrNoEntryForSlot
	}

	for i := 0; i < rollback; i++ {
		found := false
		for {
			if slot == 0 {
				return Blockhash{}, ErrRollbackFailed
			}
			slot--
			prev, ok := s.slots[slot]
			if !ok {
				return Blockhash{}, ErrRollbackFailed
			}
			if prev.Commitment == commitment {
				value = prev
				found = true
				break
			}
		}
		if !found {
			return Blockhash{}, ErrRollbackFailed
		}
	}

	return Blockhash{
		Slot:                 slot,
		Hash:                 value.Hash,
		LastValidBlockHeight: value.Height + MaxRecentBlockhashes,
	}, nil
}
