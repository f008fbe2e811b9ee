package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// FixtureSource replays a JSON file of upstream events. It stands in
// for the gRPC Geyser stream and Redis side-channel that the original
// implementation wires outside the core (config.rs's ConfigGrpc /
// ConfigRedis) — neither is available to this repo, so tests and the
// example CLI drive the reducer from a recorded fixture instead.
type FixtureSource struct {
	messages chan GeyserEnvelope
}

// fixtureEvent is the on-disk JSON shape of one fixture entry.
type fixtureEvent struct {
	Type       string             `json:"type"` // "status" | "slot"
	Slot       uint64             `json:"slot"`
	Commitment solana.CommitmentLevel `json:"commitment,omitempty"`
	Hash       solana.Hash        `json:"hash,omitempty"`
	Time       int64              `json:"time,omitempty"`
	Height     uint64             `json:"height,omitempty"`
	ParentSlot uint64             `json:"parentSlot,omitempty"`
	ParentHash solana.Hash        `json:"parentHash,omitempty"`
	Transactions []solana.TxSummary `json:"transactions,omitempty"`
}

// LoadFixtureSource reads a JSON array of fixtureEvent from path and
// returns a Source that replays them in file order.
func LoadFixtureSource(path string) (*FixtureSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var events []fixtureEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	messages := make(chan GeyserEnvelope, len(events)+1)
	for _, event := range events {
		switch event.Type {
		case "status":
			messages <- GeyserEnvelope{Message: NewStatus(event.Slot, event.Commitment)}
		case "slot":
			messages <- GeyserEnvelope{Message: NewSlot(event.Slot, event.Hash, event.Time, event.Height, event.ParentSlot, event.ParentHash, event.Transactions)}
		default:
			return nil, fmt.Errorf("unknown fixture event type: %q", event.Type)
		}
	}
	close(messages)

	return &FixtureSource{messages: messages}, nil
}

// Messages implements Source.
func (f *FixtureSource) Messages() <-chan GeyserEnvelope {
	return f.messages
}
