// ABOUTME: Streaming session wrapping one author's fragment accumulator
// ABOUTME: Carries a synthetic stable identity for display-list keying

package timeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/2389/parley/internal/event"
	"github.com/2389/parley/internal/fragment"
)

// Session tracks one author's in-progress streamed message. At most one
// session exists per author at any time; it is destroyed the instant a
// finalized message from the same author is ingested.
//
// The session has no single authoritative protocol identity, being the
// superposition of many partial events, so ID is a synthetic UUID that stays
// stable across deltas. Display code keys on it; it never goes on the wire.
type Session struct {
	ID     string
	Author string

	// Opening event: the first streaming fragment seen from the author.
	OpeningEventID string
	StartedAt      time.Time

	// Most recent contributing event.
	LatestEventID string
	UpdatedAt     time.Time

	acc *fragment.Accumulator
}

// newSession opens a session from the author's first streaming fragment.
// The caller has already validated the event shape.
func newSession(ev *event.Event) *Session {
	s := &Session{
		ID:             uuid.New().String(),
		Author:         ev.Author,
		OpeningEventID: ev.ID,
		StartedAt:      ev.CreatedAt,
		LatestEventID:  ev.ID,
		UpdatedAt:      ev.CreatedAt,
		acc:            fragment.NewAccumulator(),
	}
	s.acc.AddDelta(ev.Seq(), ev.Content)
	return s
}

// addDelta feeds a fragment event into the accumulator and records it as the
// latest contributing event. Under the first-write-wins policy a repeated
// sequence number leaves the stored chunk untouched.
func (s *Session) addDelta(ev *event.Event, policy OverwritePolicy) {
	if policy == OverwriteFirstWins && s.acc.Has(ev.Seq()) {
		return
	}
	s.acc.AddDelta(ev.Seq(), ev.Content)
	s.LatestEventID = ev.ID
	s.UpdatedAt = ev.CreatedAt
}

// Content returns the current reconstruction of the streamed message.
func (s *Session) Content() string {
	return s.acc.Content()
}

// FragmentCount returns the number of fragments received so far.
func (s *Session) FragmentCount() int {
	return s.acc.Len()
}
