// Package solana holds the wire and data types shared by every core
// component: account public keys, block hashes, commitment levels and
// the per-transaction summary the upstream feed produces.
package solana

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

// PubkeyLen is the length in bytes of a Solana account public key.
const PubkeyLen = 32

// MaxTxAccountLocks is Solana's cap on the number of accounts a single
// transaction may lock. Subscription filters and prioritization-fee
// account lists are bounded by the same number (spec.md §4.5/§4.6).
const MaxTxAccountLocks = 64

// Pubkey is a 32-byte account identifier, base58-encoded on the wire.
type Pubkey [PubkeyLen]byte

// ParsePubkey decodes a base58-encoded public key.
func ParsePubkey(s string) (Pubkey, error) {
	var pk Pubkey
	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("invalid base58: %w", err)
	}
	if len(decoded) != PubkeyLen {
		return pk, fmt.Errorf("invalid pubkey length: got %d, want %d", len(decoded), PubkeyLen)
	}
	copy(pk[:], decoded)
	return pk, nil
}

// String returns the base58 encoding of the key.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePubkey(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Less reports whether p sorts before other; used to keep account lists
// ordered ascending the way the upstream feed delivers them.
func (p Pubkey) Less(other Pubkey) bool {
	return bytes.Compare(p[:], other[:]) < 0
}

// SortPubkeys sorts a slice of pubkeys ascending in place.
func SortPubkeys(keys []Pubkey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// BinarySearch reports whether key is present in a slice that is already
// sorted ascending.
func BinarySearch(sorted []Pubkey, key Pubkey) bool {
	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Less(key) })
	return i < len(sorted) && sorted[i] == key
}

// HashLen is the length in bytes of a block hash.
const HashLen = 32

// Hash is a 32-byte block hash, base58-encoded on the wire.
type Hash [HashLen]byte

// ParseHash decodes a base58-encoded hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	decoded, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("invalid base58: %w", err)
	}
	if len(decoded) != HashLen {
		return h, fmt.Errorf("invalid hash length: got %d, want %d", len(decoded), HashLen)
	}
	copy(h[:], decoded)
	return h, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
