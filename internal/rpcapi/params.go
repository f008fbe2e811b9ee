package rpcapi

import (
	"github.com/solfees-xyz/solfees-go/internal/ingest"
	"github.com/solfees-xyz/solfees-go/internal/solana"
)

// Dialect selects which request-parameter shape a listener accepts.
// The "solana" dialect matches the stock JSON-RPC API; "triton" adds
// the rollback/percentile extensions a subset of RPC providers expose
// (spec.md §4.5).
type Dialect int

const (
	DialectSolana Dialect = iota
	DialectTriton
)

func (d Dialect) String() string {
	if d == DialectTriton {
		return "triton"
	}
	return "solana"
}

// contextConfig is the common commitment/minContextSlot config object
// shared by getLatestBlockhash and getSlot in the standard dialect.
type contextConfig struct {
	Commitment     *solana.CommitmentLevel `json:"commitment,omitempty"`
	MinContextSlot *uint64                 `json:"minContextSlot,omitempty"`
}

func (c contextConfig) commitment() solana.CommitmentLevel {
	if c.Commitment == nil {
		return solana.Finalized
	}
	return *c.Commitment
}

// latestBlockhashConfigTriton adds the rollback extension on top of
// contextConfig's commitment/minContextSlot fields.
type latestBlockhashConfigTriton struct {
	Commitment     *solana.CommitmentLevel `json:"commitment,omitempty"`
	MinContextSlot *uint64                 `json:"minContextSlot,omitempty"`
	Rollback       int                     `json:"rollback,omitempty"`
}

func (c latestBlockhashConfigTriton) commitment() solana.CommitmentLevel {
	if c.Commitment == nil {
		return solana.Finalized
	}
	return *c.Commitment
}

// recentPrioritizationFeesConfigTriton adds the percentile extension.
type recentPrioritizationFeesConfigTriton struct {
	Percentile *uint16 `json:"percentile,omitempty"`
}

// parseLatestBlockhash builds the internal request for getLatestBlockhash,
// honoring the active dialect.
func parseLatestBlockhash(call Call, dialect Dialect) (ingest.Request, *Error) {
	switch dialect {
	case DialectTriton:
		var params struct {
			Config *latestBlockhashConfigTriton `json:"config,omitempty"`
		}
		if err := call.parseParams(&params); err != nil {
			return ingest.Request{}, errInvalidParams(err.Error())
		}
		cfg := latestBlockhashConfigTriton{}
		if params.Config != nil {
			cfg = *params.Config
		}
		return ingest.Request{
			Kind:           ingest.RequestLatestBlockhash,
			Commitment:     cfg.commitment(),
			Rollback:       cfg.Rollback,
			MinContextSlot: cfg.MinContextSlot,
		}, nil

	default:
		var params struct {
			Config *contextConfig `json:"config,omitempty"`
		}
		if err := call.parseParams(&params); err != nil {
			return ingest.Request{}, errInvalidParams(err.Error())
		}
		cfg := contextConfig{}
		if params.Config != nil {
			cfg = *params.Config
		}
		return ingest.Request{
			Kind:           ingest.RequestLatestBlockhash,
			Commitment:     cfg.commitment(),
			MinContextSlot: cfg.MinContextSlot,
		}, nil
	}
}

// parseSlot builds the internal request for getSlot. Both dialects
// share the same shape.
func parseSlot(call Call) (ingest.Request, *Error) {
	var params struct {
		Config *contextConfig `json:"config,omitempty"`
	}
	if err := call.parseParams(&params); err != nil {
		return ingest.Request{}, errInvalidParams(err.Error())
	}
	cfg := contextConfig{}
	if params.Config != nil {
		cfg = *params.Config
	}
	return ingest.Request{
		Kind:           ingest.RequestSlot,
		Commitment:     cfg.commitment(),
		MinContextSlot: cfg.MinContextSlot,
	}, nil
}

// parseRecentPrioritizationFees builds the internal request for
// getRecentPrioritizationFees, honoring the active dialect's
// percentile extension.
func parseRecentPrioritizationFees(call Call, dialect Dialect) (ingest.Request, *Error) {
	var params struct {
		PubkeyStrs []string                              `json:"pubkeyStrs,omitempty"`
		Config     *recentPrioritizationFeesConfigTriton `json:"config,omitempty"`
	}
	if err := call.parseParams(&params); err != nil {
		return ingest.Request{}, errInvalidParams(err.Error())
	}

	pubkeys, verr := verifyPubkeys(params.PubkeyStrs)
	if verr != nil {
		return ingest.Request{}, verr
	}

	req := ingest.Request{Kind: ingest.RequestRecentPrioritizationFees, Pubkeys: pubkeys}

	if dialect == DialectTriton && params.Config != nil && params.Config.Percentile != nil {
		if *params.Config.Percentile > 10_000 {
			return ingest.Request{}, errInvalidParams("Percentile is too big; max value is 10000")
		}
		req.Percentile = params.Config.Percentile
	}

	return req, nil
}

// verifyPubkeys validates a pubkeyStrs argument list against Solana's
// account-lock cap and rejects any string that does not decode.
func verifyPubkeys(pubkeyStrs []string) ([]solana.Pubkey, *Error) {
	if len(pubkeyStrs) > solana.MaxTxAccountLocks {
		return nil, errInvalidParams("Too many inputs provided; max 64")
	}

	pubkeys := make([]solana.Pubkey, 0, len(pubkeyStrs))
	for _, s := range pubkeyStrs {
		pk, err := solana.ParsePubkey(s)
		if err != nil {
			return nil, errInvalidParams(err.Error())
		}
		pubkeys = append(pubkeys, pk)
	}
	return pubkeys, nil
}

// versionInfo is the result shape for getVersion (Supplemented Feature).
type versionInfo struct {
	Core       string `json:"solana-core"`
	FeatureSet uint32 `json:"feature-set"`
}

// ServerVersion is the static version stamp reported by getVersion.
// There is no running Solana validator behind this service, so this
// just identifies the server build the way the original's
// solana_version::Version::default() identifies the validator build.
const ServerVersion = "1.0.0"

func parseVersion(call Call) (versionInfo, *Error) {
	if err := call.expectNoParams(); err != nil {
		return versionInfo{}, err
	}
	return versionInfo{Core: ServerVersion, FeatureSet: 0}, nil
}
