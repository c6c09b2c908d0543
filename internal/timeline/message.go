// ABOUTME: Finalized message type and the deduplicated, insertion-ordered message store
// ABOUTME: Upsert is last-write-wins by identity; messages are never retracted

package timeline

import "time"

// DeliveryStatus tracks local send progress for optimistic messages. It is
// irrelevant to reconciliation itself and exists so the display layer can
// surface "sending" and "failed to send" states.
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

// Message is a complete, finalized message. ParentID empty means root-level.
type Message struct {
	ID        string
	Author    string
	ParentID  string
	Content   string
	CreatedAt time.Time
	Status    DeliveryStatus
	Local     bool // inserted optimistically, not yet confirmed by the network
}

// MessageStore is the deduplicated set of finalized messages, keyed by
// identity. It retains the insertion order of first appearance, which the
// reply index uses for first-seen author semantics.
type MessageStore struct {
	byID  map[string]*Message
	order []string
}

// NewMessageStore returns an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		byID: make(map[string]*Message),
	}
}

// Upsert inserts or overwrites by identity. Re-ingesting an identity replaces
// the message in place (last write wins) and keeps its original insertion
// slot; it never duplicates.
func (s *MessageStore) Upsert(m *Message) {
	if _, exists := s.byID[m.ID]; !exists {
		s.order = append(s.order, m.ID)
	}
	s.byID[m.ID] = m
}

// Get returns the message with the given identity, if present.
func (s *MessageStore) Get(id string) (*Message, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// All returns every stored message in insertion order of first appearance.
func (s *MessageStore) All() []*Message {
	msgs := make([]*Message, 0, len(s.order))
	for _, id := range s.order {
		msgs = append(msgs, s.byID[id])
	}
	return msgs
}

// Len returns the number of distinct messages stored.
func (s *MessageStore) Len() int {
	return len(s.byID)
}
