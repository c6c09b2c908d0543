// ABOUTME: Tests for the presence tracker
// ABOUTME: Covers last-write-wins starts, stops, and deterministic ordering

package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresence_StartStop(t *testing.T) {
	p := NewPresenceTracker()
	now := time.Now()

	p.Start("alice", now)
	assert.True(t, p.IsActive("alice"))
	assert.Equal(t, 1, p.Len())

	p.Stop("alice")
	assert.False(t, p.IsActive("alice"))
	assert.Equal(t, 0, p.Len())
}

func TestPresence_OneIndicatorPerAuthor(t *testing.T) {
	p := NewPresenceTracker()
	first := time.Now()
	second := first.Add(time.Minute)

	p.Start("alice", first)
	p.Start("alice", second)

	require.Equal(t, 1, p.Len())
	assert.True(t, p.Active()[0].StartedAt.Equal(second), "restart overwrites the timestamp")
}

func TestPresence_StopUnknownAuthorIsNoop(t *testing.T) {
	p := NewPresenceTracker()
	p.Stop("nobody")
	assert.Equal(t, 0, p.Len())
}

func TestPresence_ActiveOrderedByStartTime(t *testing.T) {
	p := NewPresenceTracker()
	now := time.Now()

	p.Start("carol", now.Add(2*time.Second))
	p.Start("alice", now)
	p.Start("bob", now.Add(time.Second))

	active := p.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "alice", active[0].Author)
	assert.Equal(t, "bob", active[1].Author)
	assert.Equal(t, "carol", active[2].Author)
}

func TestPresence_TieBreaksOnAuthor(t *testing.T) {
	p := NewPresenceTracker()
	now := time.Now()

	p.Start("zed", now)
	p.Start("amy", now)

	active := p.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "amy", active[0].Author)
	assert.Equal(t, "zed", active[1].Author)
}
