// ABOUTME: Conversation state orchestrator - the single ingestion point for events
// ABOUTME: Enforces the streaming-to-final handoff invariant and derives the display projection

package timeline

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/2389/parley/internal/event"
)

// DisplayMessage is one record of the ordered display projection.
type DisplayMessage struct {
	ID                 string
	Author             string
	Content            string
	CreatedAt          time.Time
	Streaming          bool
	Status             DeliveryStatus
	NestedReplyCount   int
	NestedReplyAuthors []string
}

// State reconciles the unordered event stream of one conversation into a
// consistent view. It owns all mutable state exclusively; the caller must
// serialize Apply calls and reads (one goroutine, one mailbox). Apply never
// returns an error: degenerate inputs degrade to a no-op.
type State struct {
	root     string
	opts     Options
	store    *MessageStore
	sessions map[string]*Session
	presence *PresenceTracker
	logger   *slog.Logger
}

// New creates a conversation state for the given root message identity with
// default policies. Pass nil logger for default.
func New(rootID string, logger *slog.Logger) *State {
	return NewWithOptions(rootID, Options{}, logger)
}

// NewWithOptions creates a conversation state with explicit policies.
func NewWithOptions(rootID string, opts Options, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		root:     rootID,
		opts:     opts.normalized(),
		store:    NewMessageStore(),
		sessions: make(map[string]*Session),
		presence: NewPresenceTracker(),
		logger:   logger.With("component", "timeline", "root", rootID),
	}
}

// Root returns the conversation root message identity.
func (s *State) Root() string {
	return s.root
}

// Apply ingests one event, dispatching by kind. Malformed events are dropped
// with no partial state mutation. For a finalized message the store update
// and the session/presence clears happen within this one synchronous step, so
// an observer between Apply calls never sees both the message and a stale
// streaming or presence artifact for its author.
func (s *State) Apply(ev *event.Event) {
	if ev == nil {
		return
	}
	if err := ev.Validate(); err != nil {
		s.logger.Debug("dropping malformed event",
			"event_id", ev.ID,
			"kind", ev.Kind,
			"error", err)
		return
	}

	switch ev.Kind {
	case event.KindMessage:
		s.applyMessage(ev)
	case event.KindDelta:
		s.applyDelta(ev)
	case event.KindTypingStart:
		s.presence.Start(ev.Author, ev.CreatedAt)
	case event.KindTypingStop:
		s.presence.Stop(ev.Author)
	}
}

// applyMessage upserts the finalized message, then immediately clears any
// streaming session and presence indicator for the same author.
func (s *State) applyMessage(ev *event.Event) {
	msg := &Message{
		ID:        ev.ID,
		Author:    ev.Author,
		ParentID:  ev.ParentID,
		Content:   ev.Content,
		CreatedAt: ev.CreatedAt,
		Status:    StatusSent,
	}

	if prev, ok := s.store.Get(ev.ID); ok && prev.Local {
		s.logger.Debug("reconciled optimistic message", "message_id", ev.ID)
	}
	s.store.Upsert(msg)

	delete(s.sessions, ev.Author)
	s.presence.clear(ev.Author)
}

// applyDelta opens a session on the author's first fragment and feeds
// subsequent fragments into the existing one.
func (s *State) applyDelta(ev *event.Event) {
	if sess, ok := s.sessions[ev.Author]; ok {
		sess.addDelta(ev, s.opts.DeltaOverwrite)
		return
	}
	s.sessions[ev.Author] = newSession(ev)
}

// AddLocalMessage inserts a message with no network event backing it, used to
// reflect a message the local user is sending before confirmation arrives.
// It participates in the store and reply index identically to network-sourced
// messages; the network copy carrying the same identity later reconciles it
// in place.
func (s *State) AddLocalMessage(m *Message) {
	if m == nil {
		return
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = StatusPending
	}
	m.Local = true
	s.store.Upsert(m)
}

// Restore inserts a previously persisted finalized message, e.g. when
// replaying local history into a fresh state. No session or presence
// bookkeeping applies; history holds only finalized messages.
func (s *State) Restore(m *Message) {
	if m == nil || m.ID == "" {
		return
	}
	s.store.Upsert(m)
}

// DisplayMessages returns the ordered display projection: the root, direct
// replies, and one synthetic in-progress entry per active streaming session,
// sorted ascending by creation timestamp. Nested replies stay in the store
// but collapse into count/author aggregates on their direct-reply ancestor.
// This is a pure projection with no side effects.
func (s *State) DisplayMessages() []DisplayMessage {
	idx := buildReplyIndex(s.root, s.store)

	out := make([]DisplayMessage, 0, s.store.Len()+len(s.sessions))
	for _, m := range s.store.All() {
		depth := idx.Depth(m.ID)
		if depth >= 2 {
			continue
		}
		if depth == depthOrphan && s.opts.OrphanReplies == OrphansHide {
			continue
		}
		count, authors := idx.Stats(m.ID)
		out = append(out, DisplayMessage{
			ID:                 m.ID,
			Author:             m.Author,
			Content:            m.Content,
			CreatedAt:          m.CreatedAt,
			Status:             m.Status,
			NestedReplyCount:   count,
			NestedReplyAuthors: authors,
		})
	}

	for _, sess := range s.sessions {
		out = append(out, DisplayMessage{
			ID:        sess.ID,
			Author:    sess.Author,
			Content:   sess.Content(),
			CreatedAt: sess.StartedAt,
			Streaming: true,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// Replies returns the full nested subtree under the given identity in
// chronological order, for expand-on-demand views of a collapsed thread.
func (s *State) Replies(id string) []*Message {
	idx := buildReplyIndex(s.root, s.store)
	subtree := idx.Subtree(id)
	sort.Slice(subtree, func(i, j int) bool {
		if !subtree[i].CreatedAt.Equal(subtree[j].CreatedAt) {
			return subtree[i].CreatedAt.Before(subtree[j].CreatedAt)
		}
		return subtree[i].ID < subtree[j].ID
	})
	return subtree
}

// Message returns the stored message with the given identity, if present.
func (s *State) Message(id string) (*Message, bool) {
	return s.store.Get(id)
}

// Messages returns every stored message in insertion order, nested replies
// included.
func (s *State) Messages() []*Message {
	return s.store.All()
}

// Session returns the author's active streaming session, if any.
func (s *State) Session(author string) (*Session, bool) {
	sess, ok := s.sessions[author]
	return sess, ok
}

// Sessions returns all active streaming sessions ordered by start time.
func (s *State) Sessions() []*Session {
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].Author < out[j].Author
	})
	return out
}

// Presence returns the current composing indicators.
func (s *State) Presence() []Indicator {
	return s.presence.Active()
}

// IsTyping reports whether the author currently has a composing indicator.
func (s *State) IsTyping(author string) bool {
	return s.presence.IsActive(author)
}
