// Package wsserver implements the SlotsSubscribe streaming endpoint
// described in spec.md §4.6: a single-writer-per-connection WebSocket
// loop over a subscription filter on writable/readable accounts and
// percentile levels of the matching transactions' fees.
package wsserver

import (
	"encoding/json"
	"sort"

	"github.com/solfees-xyz/solfees-go/internal/rpcapi"
	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// maxLevels is the cap on how many percentile levels one filter may
// request, per spec.md §4.6.
const maxLevels = 5

// maxPercentileLevel is the highest basis-points value a single level
// may carry.
const maxPercentileLevel = 10_000

// subscribeConfigParams is the wire shape of SlotsSubscribe's params.
type subscribeConfigParams struct {
	Config *subscribeConfig `json:"config,omitempty"`
}

type subscribeConfig struct {
	ReadWrite []string `json:"readWrite,omitempty"`
	ReadOnly  []string `json:"readOnly,omitempty"`
	Levels    []uint16 `json:"levels,omitempty"`
	SkipZeros bool     `json:"skipZeros,omitempty"`
}

// Filter is a validated SlotsSubscribe filter: the account sets a
// transaction must touch to pass, and the percentile levels to report
// alongside the average fee. ReadWrite and ReadOnly are kept sorted so
// matching can binary-search.
//
// SkipZeros is parsed but has no effect on output, mirroring an open
// question in the upstream protocol: the field exists on the wire but
// the reference server has never implemented the filtering it implies.
type Filter struct {
	ReadWrite []solana.Pubkey
	ReadOnly  []solana.Pubkey
	Levels    []uint16
	SkipZeros bool
}

// ParseFilter validates params against the SlotsSubscribe config shape
// and builds a Filter, per spec.md §4.6.
func ParseFilter(params []byte) (Filter, *rpcapi.Error) {
	var wire subscribeConfigParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &wire); err != nil {
			return Filter{}, rpcapi.InvalidParams(err.Error())
		}
	}

	cfg := subscribeConfig{}
	if wire.Config != nil {
		cfg = *wire.Config
	}

	readWrite, perr := parsePubkeys(cfg.ReadWrite)
	if perr != nil {
		return Filter{}, perr
	}
	readOnly, perr := parsePubkeys(cfg.ReadOnly)
	if perr != nil {
		return Filter{}, perr
	}

	if len(readWrite)+len(readOnly) > solana.MaxTxAccountLocks {
		return Filter{}, rpcapi.InvalidParams("readWrite and readOnly should contain less than 64 accounts")
	}

	if len(cfg.Levels) > maxLevels {
		return Filter{}, rpcapi.InvalidParams("only max 5 percentile levels are allowed")
	}
	for _, level := range cfg.Levels {
		if level > maxPercentileLevel {
			return Filter{}, rpcapi.InvalidParams("percentile level is too big; max value is 10000")
		}
	}

	solana.SortPubkeys(readWrite)
	solana.SortPubkeys(readOnly)

	return Filter{
		ReadWrite: readWrite,
		ReadOnly:  readOnly,
		Levels:    cfg.Levels,
		SkipZeros: cfg.SkipZeros,
	}, nil
}

func parsePubkeys(strs []string) ([]solana.Pubkey, *rpcapi.Error) {
	pubkeys := make([]solana.Pubkey, 0, len(strs))
	for _, s := range strs {
		pk, err := solana.ParsePubkey(s)
		if err != nil {
			return nil, rpcapi.InvalidParams("failed to parse pubkey: " + s)
		}
		pubkeys = append(pubkeys, pk)
	}
	return pubkeys, nil
}

// matchesAccounts reports whether required is empty, or every pubkey in
// required is present in the sorted pubkeys slice.
func matchesAccounts(required, pubkeys []solana.Pubkey) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		if !solana.BinarySearch(pubkeys, want) {
			return false
		}
	}
	return true
}

// matches reports whether a transaction's accounts satisfy this filter:
// every required read-write account is in the writable set and every
// required read-only account is in the readable set. It does not look
// at the vote flag; GetFiltered skips vote transactions before calling it.
func (f Filter) matches(accounts solana.TxAccounts) bool {
	return matchesAccounts(f.ReadWrite, accounts.Writable) && matchesAccounts(f.ReadOnly, accounts.Readable)
}

// sortUint64 sorts fees ascending in place; a tiny wrapper kept local
// to avoid importing sort at every call site in output.go.
func sortUint64(values []uint64) {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
}
