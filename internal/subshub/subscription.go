package subshub

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Recv once the hub has shut down and every
// buffered value has been drained.
var ErrClosed = errors.New("subshub: closed")

// ErrLagged is returned by Recv when this subscription's ring overflowed
// and one or more values were dropped before it could read them.
var ErrLagged = errors.New("subshub: lagged")

// Subscription is one subscriber's view of the hub: an internal ring
// buffer plus a notification channel, so a connection's event loop can
// select on Recv alongside socket I/O.
type Subscription struct {
	hub    *Hub
	id     uint64
	cap    int
	notify chan struct{}

	mu     sync.Mutex
	ring   []any
	lagged bool
	closed bool
}

func (s *Subscription) push(value any) {
	s.mu.Lock()
	if len(s.ring) >= s.cap {
		// Drop the oldest buffered value; the subscriber will observe
		// this as a lag the next time it calls Recv.
		s.ring = s.ring[1:]
		s.lagged = true
	}
	s.ring = append(s.ring, value)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// tryRecv returns the next buffered value, a lag signal, a close
// signal, or "nothing ready" (ok=false) without blocking.
func (s *Subscription) tryRecv() (value any, gotValue bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lagged {
		s.lagged = false
		return nil, false, ErrLagged
	}
	if len(s.ring) > 0 {
		value = s.ring[0]
		s.ring = s.ring[1:]
		return value, true, nil
	}
	if s.closed {
		return nil, false, ErrClosed
	}
	return nil, false, nil
}

// Recv blocks until a value, a lag signal, a close signal, or ctx
// cancellation. It is safe to call from exactly one goroutine per
// subscription at a time (the connection's single event loop).
func (s *Subscription) Recv(ctx context.Context) (any, error) {
	for {
		value, ok, err := s.tryRecv()
		if err != nil {
			return nil, err
		}
		if ok {
			return value, nil
		}

		select {
		case <-s.notify:
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close releases the subscription's slot in the hub.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}
