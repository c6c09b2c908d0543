// ABOUTME: Ephemeral "is composing" indicators keyed by author identity
// ABOUTME: Cleared by explicit stop or implicitly when the author's finalized message lands

package timeline

import (
	"sort"
	"time"
)

// Indicator records one author's active composing state.
type Indicator struct {
	Author    string
	StartedAt time.Time
}

// PresenceTracker holds at most one indicator per author. Presence is
// best-effort and ephemeral; the only ordering guarantee between start/stop
// pairs is last-write-wins.
type PresenceTracker struct {
	active map[string]Indicator
}

// NewPresenceTracker returns an empty tracker.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		active: make(map[string]Indicator),
	}
}

// Start inserts or overwrites the indicator for the author.
func (p *PresenceTracker) Start(author string, at time.Time) {
	p.active[author] = Indicator{Author: author, StartedAt: at}
}

// Stop removes the author's indicator, if any.
func (p *PresenceTracker) Stop(author string) {
	p.clear(author)
}

// clear removes the indicator unconditionally. The conversation state calls
// it when a finalized message from the author is ingested; external callers
// use Stop.
func (p *PresenceTracker) clear(author string) {
	delete(p.active, author)
}

// IsActive reports whether the author currently has an indicator.
func (p *PresenceTracker) IsActive(author string) bool {
	_, ok := p.active[author]
	return ok
}

// Active returns all current indicators, ordered by start time then author so
// iteration order never depends on map ordering.
func (p *PresenceTracker) Active() []Indicator {
	out := make([]Indicator, 0, len(p.active))
	for _, ind := range p.active {
		out = append(out, ind)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].Author < out[j].Author
	})
	return out
}

// Len returns the number of authors with an active indicator.
func (p *PresenceTracker) Len() int {
	return len(p.active)
}
