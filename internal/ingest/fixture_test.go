package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/solana"
	"github.com/solfees-xyz/solfees-go/internal/subshub"
)

func TestLoadFixtureSourceReplaysIntoReducer(t *testing.T) {
	source, err := LoadFixtureSource("../../testdata/fixture_basic.json")
	require.NoError(t, err)

	hub := subshub.New(16)
	reducer := New(zap.NewNop().Sugar(), hub, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reducer.Run(ctx)
	// Pump would shut the reducer down once the fixture channel closes,
	// so the events are forwarded directly to keep it serving requests.
	for env := range source.Messages() {
		reducer.PushGeyser(env.Message)
	}

	results := submitAndWait(t, reducer, []Request{{Kind: RequestLatestBlockhash, Commitment: solana.Finalized}})
	require.Len(t, results, 1)

	// Every fixture event is queued ahead of the batch and the reducer
	// drains ingest events before requests; retry briefly if the first
	// answer still fails.
	deadline := time.Now().Add(2 * time.Second)
	for results[0].Err != nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		results = submitAndWait(t, reducer, []Request{{Kind: RequestLatestBlockhash, Commitment: solana.Finalized}})
	}

	require.NoError(t, results[0].Err)
	require.Equal(t, uint64(100), results[0].LatestBlockhash.ContextSlot)
}

func TestLoadFixtureSourceRejectsUnknownEventType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"type":"bogus","slot":1}]`), 0o600))

	_, err := LoadFixtureSource(path)
	require.Error(t, err)
}
