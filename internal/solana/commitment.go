package solana

import (
	"encoding/json"
	"fmt"
)

// CommitmentLevel is a three-valued confidence tag on a slot, ordered
// Processed < Confirmed < Finalized.
type CommitmentLevel uint8

const (
	Processed CommitmentLevel = iota
	Confirmed
	Finalized
)

func (c CommitmentLevel) String() string {
	switch c {
	case Processed:
		return "processed"
	case Confirmed:
		return "confirmed"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

func ParseCommitment(s string) (CommitmentLevel, error) {
	switch s {
	case "", "processed":
		return Processed, nil
	case "confirmed":
		return Confirmed, nil
	case "finalized", "max":
		return Finalized, nil
	default:
		return Processed, fmt.Errorf("unknown commitment: %q", s)
	}
}

func (c CommitmentLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *CommitmentLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCommitment(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
