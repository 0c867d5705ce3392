// ABOUTME: In-memory fan-out of conversation snapshots to presentation subscribers
// ABOUTME: Each subscriber holds at most one pending snapshot; newer ones replace it

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster provides in-memory pub/sub for conversation snapshots.
// A subscriber channel has room for a single snapshot. When a subscriber
// falls behind, the pending snapshot is replaced by the newer one, so a
// reader always catches up to the latest state without blocking publishers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan State // subID -> ch
	closed      bool
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan State),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber and queues initial as its first snapshot.
// Returns the channel and a subscription ID for Unsubscribe. The subscription
// is cleaned up automatically when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, initial State) (<-chan State, string) {
	subID := uuid.New().String()
	ch := make(chan State, 1)
	ch <- initial

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish offers a snapshot to every subscriber. Never blocks.
func (b *Broadcaster) Publish(state State) {
	// Sends happen under the read lock so Unsubscribe cannot close a
	// channel mid-send. Every send below is non-blocking.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- state:
			continue
		default:
		}

		// Full: drop the stale snapshot and queue the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
			// Only reachable with concurrent publishers. The store
			// publishes under its own lock, so it never gets here.
			b.logger.Debug("snapshot superseded", "sub_id", id, "version", state.Version)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Len returns the number of active subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}
	b.closed = true

	b.logger.Debug("broadcaster closed")
}
