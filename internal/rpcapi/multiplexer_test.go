package rpcapi

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/ingest"
	"github.com/solfees-xyz/solfees-go/internal/subshub"
)

func newTestMultiplexer(t *testing.T, dialect Dialect) *Multiplexer {
	t.Helper()
	hub := subshub.New(16)
	reducer := ingest.New(zap.NewNop().Sugar(), hub, 16)

	ctx, cancel := context.WithCancel(context.Background())
	go reducer.Run(ctx)
	t.Cleanup(cancel)

	return NewMultiplexer(reducer, dialect, 32, time.Second)
}

func TestSingleCallShape(t *testing.T) {
	mux := newTestMultiplexer(t, DialectSolana)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"getVersion"}`)
	resp, err := mux.Handle(context.Background(), body)
	require.NoError(t, err)

	var decoded Output
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.Nil(t, decoded.Error)
	assert.NotNil(t, decoded.Result)
}

func TestBatchPreservesOrder(t *testing.T) {
	mux := newTestMultiplexer(t, DialectSolana)

	body := []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"getSlot"},
		{"jsonrpc":"2.0","id":2,"method":"bogusMethod"},
		{"jsonrpc":"2.0","id":3,"method":"getVersion"}
	]`)
	resp, err := mux.Handle(context.Background(), body)
	require.NoError(t, err)

	var decoded []Output
	require.NoError(t, json.Unmarshal(resp, &decoded))
	require.Len(t, decoded, 3)

	assert.Nil(t, decoded[0].Error)
	require.NotNil(t, decoded[1].Error)
	assert.Equal(t, CodeMethodNotFound, decoded[1].Error.Code)
	assert.Nil(t, decoded[2].Error)
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	mux := newTestMultiplexer(t, DialectSolana)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"doesNotExist"}`)
	resp, err := mux.Handle(context.Background(), body)
	require.NoError(t, err)

	var decoded Output
	require.NoError(t, json.Unmarshal(resp, &decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, CodeMethodNotFound, decoded.Error.Code)
}

func TestNotificationGetsInvalidRequestFailure(t *testing.T) {
	mux := newTestMultiplexer(t, DialectSolana)

	body := []byte(`{"jsonrpc":"2.0","method":"getVersion"}`)
	resp, err := mux.Handle(context.Background(), body)
	require.NoError(t, err)

	var decoded Output
	require.NoError(t, json.Unmarshal(resp, &decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, CodeInvalidRequest, decoded.Error.Code)
}

func TestTooManyCallsRejected(t *testing.T) {
	hub := subshub.New(16)
	reducer := ingest.New(zap.NewNop().Sugar(), hub, 16)
	mux := NewMultiplexer(reducer, DialectSolana, 1, time.Second)

	body := []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"getVersion"},
		{"jsonrpc":"2.0","id":2,"method":"getVersion"}
	]`)
	_, err := mux.Handle(context.Background(), body)
	assert.ErrorIs(t, err, ErrTooManyCalls)
}

func TestTritonDialectAcceptsRollback(t *testing.T) {
	mux := newTestMultiplexer(t, DialectTriton)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"getLatestBlockhash","params":{"config":{"commitment":"finalized","rollback":5}}}`)
	resp, err := mux.Handle(context.Background(), body)
	require.NoError(t, err)

	var decoded Output
	require.NoError(t, json.Unmarshal(resp, &decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, CodeInternalError, decoded.Error.Code)
}

func TestGetVersionRejectsArguments(t *testing.T) {
	mux := newTestMultiplexer(t, DialectSolana)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"getVersion","params":["unexpected"]}`)
	resp, err := mux.Handle(context.Background(), body)
	require.NoError(t, err)

	var decoded Output
	require.NoError(t, json.Unmarshal(resp, &decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, CodeInvalidParams, decoded.Error.Code)
}
