// ABOUTME: TTL-based, size-limited window of recently seen event identities
// ABOUTME: Filters pub/sub redeliveries before they reach the reconciliation engine

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// windowEntry stores the timestamp and list element for a seen event ID.
type windowEntry struct {
	seenAt  time.Time
	element *list.Element
}

// Window tracks recently seen event identities so redelivered events can be
// dropped before they reach the engine. The engine itself is idempotent for
// finalized messages, but deltas and presence toggles are cheaper to filter
// here than to re-apply. Insertion order is kept in a doubly-linked list for
// O(1) eviction when the window is full.
type Window struct {
	mu      sync.Mutex
	seen    map[string]*windowEntry
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// NewWindow creates a window with the given TTL and maximum tracked IDs.
// A background goroutine periodically drops expired entries.
func NewWindow(ttl time.Duration, maxSize int) *Window {
	w := &Window{
		seen:    make(map[string]*windowEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go w.sweep()
	return w
}

// Observe records the event ID and reports whether it was already seen within
// the TTL. The check and the mark are one atomic step.
func (w *Window) Observe(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.seen[id]
	if ok && time.Since(entry.seenAt) < w.ttl {
		// Refresh so a burst of redeliveries keeps the entry alive.
		entry.seenAt = time.Now()
		w.order.MoveToBack(entry.element)
		return true
	}

	w.markLocked(id)
	return false
}

// markLocked records an ID. Must be called with mu held.
func (w *Window) markLocked(id string) {
	now := time.Now()

	if entry, exists := w.seen[id]; exists {
		entry.seenAt = now
		w.order.MoveToBack(entry.element)
		return
	}

	if len(w.seen) >= w.maxSize {
		w.evictOldest()
	}

	elem := w.order.PushBack(id)
	w.seen[id] = &windowEntry{seenAt: now, element: elem}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (w *Window) evictOldest() {
	front := w.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	w.order.Remove(front)
	delete(w.seen, id)
}

// Len returns the number of tracked IDs, expired entries included until the
// next sweep.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

// sweep runs in a background goroutine, dropping expired entries.
func (w *Window) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.dropExpired()
		case <-w.done:
			return
		}
	}
}

func (w *Window) dropExpired() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for id, entry := range w.seen {
		if now.Sub(entry.seenAt) > w.ttl {
			w.order.Remove(entry.element)
			delete(w.seen, id)
		}
	}
}

// Close stops the background sweeper. Safe to call multiple times.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		close(w.done)
		w.closed = true
	}
}
