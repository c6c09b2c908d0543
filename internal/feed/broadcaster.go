// ABOUTME: In-memory fan-out of refreshed display projections to view subscribers
// ABOUTME: UI layers subscribe to state changes here instead of owning mutation

package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/parley/internal/timeline"
)

// subscriberBufferSize is the channel buffer for each subscriber. Snapshots
// supersede each other, so a small buffer is enough.
const subscriberBufferSize = 16

// Broadcaster publishes the refreshed display projection after each applied
// event. A Loop is bound to one conversation, so subscriptions are not keyed;
// every subscriber sees every snapshot.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan []timeline.DisplayMessage
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan []timeline.DisplayMessage),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber and returns its snapshot channel plus a
// subscription ID for later unsubscription. The subscription is cleaned up
// automatically when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan []timeline.DisplayMessage, string) {
	subID := uuid.New().String()
	ch := make(chan []timeline.DisplayMessage, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends a snapshot to every subscriber. Non-blocking: subscribers
// whose channels are full miss this snapshot and catch up on the next one.
func (b *Broadcaster) Publish(view []timeline.DisplayMessage) {
	b.mu.RLock()
	targets := make([]chan []timeline.DisplayMessage, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- view:
		default:
			b.logger.Debug("dropped snapshot for slow subscriber")
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

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}
}
