package ingest

import (
	"github.com/solfees-xyz/solfees-go/internal/recentslots"
	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// UpdateNoticeKind tags an UpdateNotice's variant, per spec.md §3.
type UpdateNoticeKind int

const (
	NoticeStatus UpdateNoticeKind = iota
	NoticeSlot
)

// UpdateNotice is a reducer-published value fanned out through the
// subscription hub. Clients receive only immutable shared references;
// they never mutate state (spec.md §3).
type UpdateNotice struct {
	Kind UpdateNoticeKind

	StatusSlot       uint64
	StatusCommitment solana.CommitmentLevel

	SlotInfo *recentslots.Info
}
