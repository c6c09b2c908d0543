// ABOUTME: Single-writer mailbox loop that serializes all engine access
// ABOUTME: Deduplicates incoming events, archives finalized messages, publishes snapshots

package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/2389/parley/internal/dedupe"
	"github.com/2389/parley/internal/event"
	"github.com/2389/parley/internal/timeline"
)

const (
	defaultBufferSize   = 64
	defaultDedupeWindow = 5 * time.Minute
	defaultDedupeSize   = 4096

	// archiveTimeout bounds each history write so a stuck disk cannot
	// stall event processing indefinitely.
	archiveTimeout = 5 * time.Second
)

// Archiver persists finalized messages as they are reconciled. The history
// store implements it; the loop treats archiving as best-effort and logs
// failures rather than halting.
type Archiver interface {
	SaveMessage(ctx context.Context, conversationID string, m *timeline.Message) error
}

// LoopConfig carries the tunables for a Loop. Zero values mean defaults.
type LoopConfig struct {
	BufferSize   int
	DedupeWindow time.Duration
	DedupeSize   int
	Archive      Archiver // optional
}

func (c LoopConfig) normalized() LoopConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.DedupeWindow <= 0 {
		c.DedupeWindow = defaultDedupeWindow
	}
	if c.DedupeSize <= 0 {
		c.DedupeSize = defaultDedupeSize
	}
	return c
}

// Loop owns one conversation state and is the only goroutine that touches it.
// Events submitted from any goroutine are applied strictly one at a time in
// delivery order; reads go through the same mailbox so they always observe a
// state between two applications, never mid-application.
type Loop struct {
	state    *timeline.State
	window   *dedupe.Window
	events   chan *event.Event
	inspects chan func(*timeline.State)
	snaps    *Broadcaster
	archive  Archiver
	logger   *slog.Logger
}

// NewLoop creates a loop around the given state. Pass nil logger for default.
// The caller must not touch the state directly after handing it over.
func NewLoop(state *timeline.State, cfg LoopConfig, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.normalized()
	return &Loop{
		state:    state,
		window:   dedupe.NewWindow(cfg.DedupeWindow, cfg.DedupeSize),
		events:   make(chan *event.Event, cfg.BufferSize),
		inspects: make(chan func(*timeline.State)),
		snaps:    NewBroadcaster(logger),
		archive:  cfg.Archive,
		logger:   logger.With("component", "feed", "root", state.Root()),
	}
}

// Run processes the mailbox until ctx is cancelled. It must be called exactly
// once, in its own goroutine.
func (l *Loop) Run(ctx context.Context) {
	defer l.window.Close()
	defer l.snaps.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			l.ingest(ev)
		case fn := <-l.inspects:
			fn(l.state)
		}
	}
}

// Submit queues one event for application. It blocks only while the mailbox
// is full.
func (l *Loop) Submit(ctx context.Context, ev *event.Event) error {
	select {
	case l.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Replay applies a batch of events on the loop goroutine and returns once all
// of them have been applied. Replay tooling uses it instead of Submit so a
// Snapshot taken afterwards is guaranteed to observe the whole batch.
func (l *Loop) Replay(ctx context.Context, events []*event.Event) error {
	return l.inspect(ctx, func(*timeline.State) {
		for _, ev := range events {
			l.ingest(ev)
		}
	})
}

// ingest applies one event and publishes the refreshed projection.
func (l *Loop) ingest(ev *event.Event) {
	if ev == nil {
		return
	}
	if ev.ID != "" && l.window.Observe(ev.ID) {
		l.logger.Debug("dropping redelivered event", "event_id", ev.ID, "kind", ev.Kind)
		return
	}

	l.state.Apply(ev)

	if ev.Kind == event.KindMessage && l.archive != nil {
		if m, ok := l.state.Message(ev.ID); ok {
			l.saveMessage(m)
		}
	}

	l.snaps.Publish(l.state.DisplayMessages())
}

// saveMessage archives a finalized message with its own timeout context so
// persistence outlives a cancelled submitter.
func (l *Loop) saveMessage(m *timeline.Message) {
	saveCtx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := l.archive.SaveMessage(saveCtx, l.state.Root(), m); err != nil {
		l.logger.Error("failed to archive message",
			"error", err,
			"message_id", m.ID)
	}
}

// inspect runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) inspect(ctx context.Context, fn func(*timeline.State)) error {
	done := make(chan struct{})
	wrapped := func(st *timeline.State) {
		fn(st)
		close(done)
	}

	select {
	case l.inspects <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current display projection.
func (l *Loop) Snapshot(ctx context.Context) ([]timeline.DisplayMessage, error) {
	var view []timeline.DisplayMessage
	err := l.inspect(ctx, func(st *timeline.State) {
		view = st.DisplayMessages()
	})
	return view, err
}

// Replies returns the nested subtree under the given identity.
func (l *Loop) Replies(ctx context.Context, id string) ([]*timeline.Message, error) {
	var subtree []*timeline.Message
	err := l.inspect(ctx, func(st *timeline.State) {
		subtree = st.Replies(id)
	})
	return subtree, err
}

// AddLocalMessage inserts an optimistic local message through the mailbox.
func (l *Loop) AddLocalMessage(ctx context.Context, m *timeline.Message) error {
	return l.inspect(ctx, func(st *timeline.State) {
		st.AddLocalMessage(m)
		l.snaps.Publish(st.DisplayMessages())
	})
}

// Subscribe registers for refreshed display projections.
func (l *Loop) Subscribe(ctx context.Context) (<-chan []timeline.DisplayMessage, string) {
	return l.snaps.Subscribe(ctx)
}

// Unsubscribe removes a projection subscription.
func (l *Loop) Unsubscribe(subID string) {
	l.snaps.Unsubscribe(subID)
}
