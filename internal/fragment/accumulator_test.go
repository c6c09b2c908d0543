// ABOUTME: Tests for the fragment accumulator
// ABOUTME: Covers arrival-order convergence, gaps, duplicates, and empty chunks

package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDelta_IntermediateReconstructions(t *testing.T) {
	a := NewAccumulator()

	assert.Equal(t, "A", a.AddDelta(0, "A"))
	assert.Equal(t, "AC", a.AddDelta(2, "C"))
	assert.Equal(t, "ABC", a.AddDelta(1, "B"))
}

func TestAddDelta_ConvergesForAnyArrivalOrder(t *testing.T) {
	chunks := map[int]string{0: "the ", 1: "quick ", 2: "brown ", 3: "fox"}
	const want = "the quick brown fox"

	orders := map[string][]int{
		"ascending":  {0, 1, 2, 3},
		"descending": {3, 2, 1, 0},
		"interleave": {2, 0, 3, 1},
		"middle out": {1, 2, 0, 3},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			a := NewAccumulator()
			for _, seq := range order {
				a.AddDelta(seq, chunks[seq])
			}
			assert.Equal(t, want, a.Content())
		})
	}
}

func TestAddDelta_GapsAreSkippedNotPadded(t *testing.T) {
	a := NewAccumulator()

	a.AddDelta(0, "start")
	a.AddDelta(5, "end")

	assert.Equal(t, "startend", a.Content())
	assert.Equal(t, 2, a.Len())
}

func TestAddDelta_DuplicateSequenceOverwrites(t *testing.T) {
	a := NewAccumulator()

	a.AddDelta(0, "hello ")
	a.AddDelta(1, "wurld")
	got := a.AddDelta(1, "world")

	assert.Equal(t, "hello world", got)
	assert.Equal(t, 2, a.Len())
}

func TestAddDelta_EmptyChunksAreStored(t *testing.T) {
	a := NewAccumulator()

	a.AddDelta(0, "a")
	a.AddDelta(1, "")
	a.AddDelta(2, "b")

	assert.Equal(t, "ab", a.Content())
	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Has(1))
}

func TestContent_ReflectsLatestWithoutNewDelta(t *testing.T) {
	a := NewAccumulator()

	assert.Equal(t, "", a.Content())

	a.AddDelta(1, "tail")
	assert.Equal(t, "tail", a.Content())
	assert.Equal(t, "tail", a.Content())
}

func TestClear_ResetsToEmpty(t *testing.T) {
	a := NewAccumulator()

	a.AddDelta(0, "gone")
	a.Clear()

	assert.Equal(t, "", a.Content())
	assert.Equal(t, 0, a.Len())
	assert.False(t, a.Has(0))
}

func TestAddDelta_NegativeSequenceOrdersFirst(t *testing.T) {
	a := NewAccumulator()

	a.AddDelta(0, "b")
	a.AddDelta(-1, "a")

	assert.Equal(t, "ab", a.Content())
}
