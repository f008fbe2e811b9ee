// Package subshub implements the broadcast hub of spec.md §4.6/§5:
// Publish copies each UpdateNotice value into a capacity-bounded ring
// owned by every subscriber. Slow subscribers observe a lag
// signal and are expected to disconnect rather than stall the
// publisher — mirroring the drop/lag semantics of Rust's
// tokio::sync::broadcast, which the original implementation uses
// directly (rpc_solana.rs, streams_tx).
package subshub

import "sync"

// Hub is a broadcast channel of values shared by reference. Publish
// never blocks: when a subscriber's buffer is full, its oldest
// un-delivered values are dropped and its next Recv reports Lagged.
type Hub struct {
	mu       sync.Mutex
	capacity int
	closed   bool
	subs     map[*Subscription]struct{}
	nextID   uint64
}

// New returns a hub with the given per-subscriber ring capacity.
func New(capacity int) *Hub {
	if capacity < 1 {
		capacity = 1
	}
	return &Hub{capacity: capacity, subs: make(map[*Subscription]struct{})}
}

// Publish fans value out to every current subscriber. Never blocks the
// caller: a subscriber whose ring is full has its oldest entry dropped
// and its lag counter incremented.
func (h *Hub) Publish(value any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for sub := range h.subs {
		sub.push(value)
	}
}

// Subscribe registers a new subscription. The caller must call Close
// when done to free the hub's reference to it.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		hub:    h,
		id:     h.nextID,
		notify: make(chan struct{}, 1),
		cap:    h.capacity,
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Shutdown marks the hub closed; every subscription's Recv will return
// ErrClosed once its buffered values are drained.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subs {
		sub.markClosed()
	}
}

// NumSubscribers reports the current subscriber count (for metrics).
func (h *Hub) NumSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}
