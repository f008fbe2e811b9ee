package subshub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInOrder(t *testing.T) {
	h := New(4)
	sub := h.Subscribe()
	defer sub.Close()

	h.Publish(1)
	h.Publish(2)
	h.Publish(3)

	ctx := context.Background()
	for _, want := range []int{1, 2, 3} {
		got, err := sub.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	h := New(2)
	sub := h.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestLaggedSubscriberGetsLagSignal(t *testing.T) {
	h := New(2)
	sub := h.Subscribe()
	defer sub.Close()

	for i := 0; i < 10; i++ {
		h.Publish(i)
	}

	ctx := context.Background()
	_, err := sub.Recv(ctx)
	assert.ErrorIs(t, err, ErrLagged)
}

func TestShutdownDrainsThenCloses(t *testing.T) {
	h := New(4)
	sub := h.Subscribe()
	defer sub.Close()

	h.Publish("a")
	h.Shutdown()

	ctx := context.Background()
	got, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	_, err = sub.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUnsubscribeRemovesFromHub(t *testing.T) {
	h := New(4)
	sub := h.Subscribe()
	assert.Equal(t, 1, h.NumSubscribers())
	sub.Close()
	assert.Equal(t, 0, h.NumSubscribers())
}
