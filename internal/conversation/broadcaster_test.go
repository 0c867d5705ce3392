// ABOUTME: Tests for the snapshot Broadcaster fan-out
// ABOUTME: Covers initial snapshot, coalescing, unsubscribe, context cancellation, concurrency

package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvState(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return State{}
	}
}

func TestBroadcaster_SubscribeQueuesInitialSnapshot(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context(), State{Version: 7, Draft: "hi"})

	got := recvState(t, ch)
	assert.Equal(t, uint64(7), got.Version)
	assert.Equal(t, "hi", got.Draft)
}

func TestBroadcaster_MultipleSubscribersReceiveSameSnapshot(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()
	ch1, _ := b.Subscribe(ctx, State{})
	ch2, _ := b.Subscribe(ctx, State{})
	ch3, _ := b.Subscribe(ctx, State{})

	b.Publish(State{Version: 1})

	for i, ch := range []<-chan State{ch1, ch2, ch3} {
		got := recvState(t, ch)
		assert.Equal(t, uint64(1), got.Version, "subscriber %d got stale snapshot", i)
	}
}

func TestBroadcaster_SlowConsumerSeesLatestSnapshot(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context(), State{})

	for i := range 100 {
		b.Publish(State{Version: uint64(i + 1)})
	}

	got := recvState(t, ch)
	assert.Equal(t, uint64(100), got.Version)

	select {
	case s := <-ch:
		t.Fatalf("unexpected extra snapshot %d", s.Version)
	default:
	}
}

func TestBroadcaster_SlowConsumerDoesNotBlockOthers(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx := t.Context()
	_, _ = b.Subscribe(ctx, State{})
	fast, _ := b.Subscribe(ctx, State{})
	recvState(t, fast)

	done := make(chan struct{})
	go func() {
		for i := range 50 {
			b.Publish(State{Version: uint64(i + 1)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on slow consumer")
	}
	assert.Equal(t, uint64(50), recvState(t, fast).Version)
}

func TestBroadcaster_ContextCancellationCleansUp(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx, State{})
	assert.Equal(t, 1, b.Len())

	cancel()

	require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 10*time.Millisecond)

	// Drain the initial snapshot, then expect closure.
	<-ch
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after context cancel")
}

func TestBroadcaster_ManualUnsubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(t.Context(), State{})
	b.Unsubscribe(subID)
	b.Unsubscribe(subID)

	<-ch
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")

	// Publishing after unsubscribe should not panic
	b.Publish(State{Version: 1})
}

func TestBroadcaster_CloseClosesAllSubscriptions(t *testing.T) {
	b := NewBroadcaster(nil)

	ch1, _ := b.Subscribe(t.Context(), State{})
	ch2, _ := b.Subscribe(t.Context(), State{})

	b.Close()

	for i, ch := range []<-chan State{ch1, ch2} {
		<-ch
		_, ok := <-ch
		assert.False(t, ok, "channel %d should be closed after Close()", i)
	}
	assert.Equal(t, 0, b.Len())
}

func TestBroadcaster_SubscribeAfterClose(t *testing.T) {
	b := NewBroadcaster(nil)
	b.Close()

	ch, _ := b.Subscribe(t.Context(), State{Version: 3})

	assert.Equal(t, uint64(3), recvState(t, ch).Version)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcaster_ConcurrentPublishSubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	var wg sync.WaitGroup
	ctx := t.Context()

	for range 10 {
		wg.Go(func() {
			subCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			ch, _ := b.Subscribe(subCtx, State{})
			for range 5 {
				select {
				case <-ch:
				case <-time.After(100 * time.Millisecond):
					return
				}
			}
		})
	}

	for range 10 {
		wg.Go(func() {
			for i := range 10 {
				b.Publish(State{Version: uint64(i)})
			}
		})
	}

	wg.Wait()
}

func TestBroadcaster_SubscribeReturnsUniqueIDs(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	_, id1 := b.Subscribe(t.Context(), State{})
	_, id2 := b.Subscribe(t.Context(), State{})

	require.NotEqual(t, id1, id2)
}

func TestBroadcaster_PublishWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	b.Publish(State{Version: 1})
	assert.Equal(t, 0, b.Len())
}
