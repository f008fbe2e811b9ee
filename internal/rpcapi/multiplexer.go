package rpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solfees-xyz/solfees-go/internal/blockhash"
	"github.com/solfees-xyz/solfees-go/internal/ingest"
	"github.com/solfees-xyz/solfees-go/internal/metrics"
)

// ErrTooManyCalls is returned when a batch exceeds the configured call
// limit (spec.md §4.5/§5).
var ErrTooManyCalls = errors.New("exceeds the maximum number of calls allowed in one request")

// Multiplexer turns a decoded Envelope into Reducer requests, submits
// them as one Batch, and splices the reducer's results back into their
// original call positions (spec.md §4.5).
type Multiplexer struct {
	reducer        *ingest.Reducer
	dialect        Dialect
	callsMax       int
	requestTimeout time.Duration
}

// NewMultiplexer builds a Multiplexer bound to one dialect and one
// reducer. callsMax bounds how many calls a single batch may contain;
// requestTimeout bounds how long the reducer may take to answer.
func NewMultiplexer(reducer *ingest.Reducer, dialect Dialect, callsMax int, requestTimeout time.Duration) *Multiplexer {
	return &Multiplexer{reducer: reducer, dialect: dialect, callsMax: callsMax, requestTimeout: requestTimeout}
}

// Handle decodes body as an Envelope, dispatches every call, and
// returns the serialized Response body with its trailing newline, the
// way the original's on_request does.
func (m *Multiplexer) Handle(ctx context.Context, body []byte) ([]byte, error) {
	start := time.Now()

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}

	if len(envelope.Calls) > m.callsMax {
		return nil, fmt.Errorf("%w (%d)", ErrTooManyCalls, m.callsMax)
	}

	defer func() {
		metrics.RequestDuration.WithLabelValues(m.dialect.String(), requestLabel(envelope)).Observe(time.Since(start).Seconds())
	}()

	response, err := m.dispatch(ctx, envelope)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(encoded, '\n'), nil
}

// pendingOutput tracks, per call, either a locally-resolved Output
// (parse failure, unknown method, notification) or a request queued
// for the reducer whose slot will be filled in once results return.
type pendingOutput struct {
	output  *Output
	request ingest.Request
	queued  bool
}

func (m *Multiplexer) dispatch(ctx context.Context, envelope Envelope) (Response, error) {
	pending := make([]pendingOutput, len(envelope.Calls))
	var queuedIdx []int
	var requests []ingest.Request

	for i, call := range envelope.Calls {
		if call.IsNotification() {
			pending[i] = pendingOutput{output: outputPtr(createFailure(call.Version, NullID, errInvalidRequest()))}
			continue
		}
		id := *call.ID

		switch call.Method {
		case "getLatestBlockhash":
			req, rerr := parseLatestBlockhash(call, m.dialect)
			if rerr != nil {
				pending[i] = pendingOutput{output: outputPtr(createFailure(call.Version, id, rerr))}
				continue
			}
			pending[i] = pendingOutput{request: req, queued: true}
			queuedIdx = append(queuedIdx, i)
			requests = append(requests, req)

		case "getRecentPrioritizationFees":
			req, rerr := parseRecentPrioritizationFees(call, m.dialect)
			if rerr != nil {
				pending[i] = pendingOutput{output: outputPtr(createFailure(call.Version, id, rerr))}
				continue
			}
			pending[i] = pendingOutput{request: req, queued: true}
			queuedIdx = append(queuedIdx, i)
			requests = append(requests, req)

		case "getSlot":
			req, rerr := parseSlot(call)
			if rerr != nil {
				pending[i] = pendingOutput{output: outputPtr(createFailure(call.Version, id, rerr))}
				continue
			}
			pending[i] = pendingOutput{request: req, queued: true}
			queuedIdx = append(queuedIdx, i)
			requests = append(requests, req)

		case "getVersion":
			version, rerr := parseVersion(call)
			if rerr != nil {
				pending[i] = pendingOutput{output: outputPtr(createFailure(call.Version, id, rerr))}
				continue
			}
			pending[i] = pendingOutput{output: outputPtr(createSuccess(call.Version, id, version))}

		default:
			pending[i] = pendingOutput{output: outputPtr(createFailure(call.Version, id, errMethodNotFound()))}
		}
	}

	if len(requests) > 0 {
		results, err := m.runBatch(ctx, requests)
		if err != nil {
			return Response{}, err
		}
		for resultIdx, i := range queuedIdx {
			call := envelope.Calls[i]
			pending[i].output = outputPtr(resultToOutput(call.Version, *call.ID, pending[i].request, results[resultIdx]))
		}
	}

	outputs := make([]Output, len(pending))
	for i, p := range pending {
		outputs[i] = *p.output
	}

	if envelope.Batched {
		return Response{Batched: true, Batch: outputs}, nil
	}
	if len(outputs) == 0 {
		return Response{}, errors.New("no output produced")
	}
	return Response{Single: &outputs[0]}, nil
}

func (m *Multiplexer) runBatch(ctx context.Context, requests []ingest.Request) ([]ingest.Result, error) {
	batch := ingest.NewBatch(requests)
	if err := m.reducer.SubmitBatch(batch); err != nil {
		return nil, err
	}

	timer := time.NewTimer(m.requestTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		batch.Cancelled.Store(true)
		return nil, ctx.Err()
	case <-timer.C:
		batch.Cancelled.Store(true)
		return nil, errors.New("request timeout")
	case results := <-batch.ResponseC:
		return results, nil
	}
}

func resultToOutput(version string, id ID, req ingest.Request, result ingest.Result) Output {
	if result.Err != nil {
		return createFailure(version, id, toRPCError(result.Err))
	}

	switch req.Kind {
	case ingest.RequestLatestBlockhash:
		return createSuccess(version, id, map[string]any{
			"context": map[string]uint64{"slot": result.LatestBlockhash.ContextSlot},
			"value": map[string]any{
				"blockhash":            result.LatestBlockhash.Blockhash.String(),
				"lastValidBlockHeight": result.LatestBlockhash.LastValidBlockHeight,
			},
		})
	case ingest.RequestSlot:
		return createSuccess(version, id, result.Slot)
	case ingest.RequestRecentPrioritizationFees:
		fees := make([]map[string]uint64, 0, len(result.Fees))
		for _, f := range result.Fees {
			fees = append(fees, map[string]uint64{"slot": f.Slot, "prioritizationFee": f.PrioritizationFee})
		}
		return createSuccess(version, id, fees)
	default:
		return createFailure(version, id, errInternalError())
	}
}

func toRPCError(err error) *Error {
	var minContextErr *ingest.ErrMinContextSlotNotReached
	if errors.As(err, &minContextErr) {
		return errMinContextSlotNotReached(minContextErr.ContextSlot)
	}
	if errors.Is(err, blockhash.ErrNoEntryForSlot) {
		return errInternalError()
	}
	return errInvalidParams(err.Error())
}

func outputPtr(o Output) *Output { return &o }

// requestLabel summarizes an envelope for the request_duration_seconds
// metric: the lone method name for a single call, "batch" otherwise.
func requestLabel(envelope Envelope) string {
	if len(envelope.Calls) == 1 {
		return envelope.Calls[0].Method
	}
	return "batch"
}
