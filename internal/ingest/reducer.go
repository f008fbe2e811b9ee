package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/blockhash"
	"github.com/solfees-xyz/solfees-go/internal/metrics"
	"github.com/solfees-xyz/solfees-go/internal/recentslots"
	"github.com/solfees-xyz/solfees-go/internal/subshub"
)

// ErrRequestsQueueFull is returned by SubmitBatch when the bounded
// reducer queue has no room, per spec.md §5/§7 ("Capacity" errors fail
// the HTTP request as a whole rather than applying backpressure).
var ErrRequestsQueueFull = errors.New("requests queue is full")

// Reducer is the single long-running task that exclusively owns the
// blockhash store and the recent-slots window (spec.md §4.4). All
// other tasks interact with it only through channels.
type Reducer struct {
	log *zap.SugaredLogger
	hub *subshub.Hub

	geyserC   chan GeyserEnvelope
	requestsC chan *Batch

	blockhashStore *blockhash.Store
	window         *recentslots.Window
}

// New builds a Reducer. requestQueueCapacity bounds the client-request
// channel (spec.md §5: "The request channel has a fixed capacity;
// overflow fails the client request rather than applying backpressure
// to the ingest path").
func New(log *zap.SugaredLogger, hub *subshub.Hub, requestQueueCapacity int) *Reducer {
	return &Reducer{
		log:            log,
		hub:            hub,
		geyserC:        make(chan GeyserEnvelope, 1024),
		requestsC:      make(chan *Batch, requestQueueCapacity),
		blockhashStore: blockhash.NewStore(),
		window:         recentslots.NewWindow(),
	}
}

// PushGeyser enqueues an upstream event. The ingest channel is
// unbounded in the original (mpsc::unbounded_channel); here it is a
// large buffered channel, which is equivalent for any ingest rate this
// service is sized for.
func (r *Reducer) PushGeyser(msg GeyserMessage) {
	r.geyserC <- GeyserEnvelope{Message: msg}
}

// Shutdown sends the shutdown sentinel; Run's loop will terminate once
// it is processed.
func (r *Reducer) Shutdown() {
	r.geyserC <- DoneEnvelope()
}

// SubmitBatch queues batch for processing with try-send semantics: it
// fails immediately rather than blocking when the queue is full
// (spec.md §4.5/§5).
func (r *Reducer) SubmitBatch(batch *Batch) error {
	select {
	case r.requestsC <- batch:
		metrics.ReducerQueueDepth.Set(float64(len(r.requestsC)))
		return nil
	default:
		metrics.RequestsQueueFullTotal.Inc()
		return ErrRequestsQueueFull
	}
}

// Run drains both input channels until the shutdown sentinel arrives or
// the geyser channel is closed, biasing the ingest channel over client
// requests on every tick so state stays fresh under load (spec.md §4.4,
// §5). It also returns when ctx is cancelled. Batches submitted after
// Run has returned are never answered; solfees-server keeps its
// listeners open and does not exit when Run returns.
func (r *Reducer) Run(ctx context.Context) {
	defer r.log.Info("reducer loop stopped")

	for {
		select {
		case env, ok := <-r.geyserC:
			if !ok || env.Done() {
				return
			}
			r.handleGeyser(env.Message)
			continue
		default:
		}

		select {
		case env, ok := <-r.geyserC:
			if !ok || env.Done() {
				return
			}
			r.handleGeyser(env.Message)

		case batch, ok := <-r.requestsC:
			if !ok {
				return
			}
			metrics.ReducerQueueDepth.Set(float64(len(r.requestsC)))
			r.handleBatch(batch)

		case <-ctx.Done():
			return
		}
	}
}

func (r *Reducer) handleGeyser(msg GeyserMessage) {
	switch msg.Kind {
	case GeyserStatus:
		r.blockhashStore.UpdateCommitment(msg.StatusSlot, msg.StatusCommitment)
		r.window.UpdateCommitment(msg.StatusSlot, msg.StatusCommitment)
		r.hub.Publish(&UpdateNotice{
			Kind:             NoticeStatus,
			StatusSlot:       msg.StatusSlot,
			StatusCommitment: msg.StatusCommitment,
		})

	case GeyserSlot:
		r.blockhashStore.PushBlock(msg.SlotSlot, msg.SlotHeight, msg.SlotHash)
		info := recentslots.NewInfo(msg.SlotSlot, msg.SlotHash, msg.SlotTime, msg.SlotHeight, msg.SlotTransactions)
		r.window.Insert(info)
		r.hub.Publish(&UpdateNotice{Kind: NoticeSlot, SlotInfo: info})
	}
}

func (r *Reducer) handleBatch(batch *Batch) {
	if batch.Cancelled.Load() {
		return
	}

	results := make([]Result, len(batch.Requests))
	for i, req := range batch.Requests {
		results[i] = r.handleRequest(req)
	}

	select {
	case batch.ResponseC <- results:
	default:
		// ResponseC has a one-slot buffer and receives only this send,
		// so it does not block even when the client has already
		// abandoned the call; a full buffer is ignored here.
	}
}

func (r *Reducer) handleRequest(req Request) Result {
	switch req.Kind {
	case RequestLatestBlockhash:
		return r.handleLatestBlockhash(req)
	case RequestSlot:
		return r.handleSlot(req)
	case RequestRecentPrioritizationFees:
		return r.handleRecentPrioritizationFees(req)
	default:
		return Result{Err: errors.New("unknown request kind")}
	}
}

func (r *Reducer) handleLatestBlockhash(req Request) Result {
	if req.Rollback > blockhash.MaxRecentBlockhashes {
		return Result{Err: blockhash.ErrRollbackTooLarge}
	}

	latestSlot := r.blockhashStore.LatestSlot(req.Commitment)
	if req.MinContextSlot != nil && latestSlot < *req.MinContextSlot {
		return Result{Err: &ErrMinContextSlotNotReached{ContextSlot: latestSlot}}
	}

	bh, err := r.blockhashStore.LatestBlockhash(req.Commitment, req.Rollback)
	if err != nil {
		return Result{Err: err}
	}

	return Result{LatestBlockhash: LatestBlockhashResult{
		ContextSlot:          bh.Slot,
		Blockhash:            bh.Hash,
		LastValidBlockHeight: bh.LastValidBlockHeight,
	}}
}

func (r *Reducer) handleSlot(req Request) Result {
	latestSlot := r.blockhashStore.LatestSlot(req.Commitment)
	if req.MinContextSlot != nil && latestSlot < *req.MinContextSlot {
		return Result{Err: &ErrMinContextSlotNotReached{ContextSlot: latestSlot}}
	}
	return Result{Slot: latestSlot}
}

func (r *Reducer) handleRecentPrioritizationFees(req Request) Result {
	ascending := r.window.Ascending()
	fees := make([]PrioritizationFee, 0, len(ascending))
	for _, info := range ascending {
		fees = append(fees, PrioritizationFee{
			Slot:              info.Slot,
			PrioritizationFee: info.Fees.GetFee(req.Pubkeys, req.Percentile),
		})
	}
	return Result{Fees: fees}
}
