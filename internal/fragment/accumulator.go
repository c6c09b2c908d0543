// ABOUTME: Reassembles one author's streamed text from sequence-numbered chunks
// ABOUTME: Tolerates out-of-order, gapped, and duplicated arrival

package fragment

import (
	"sort"
	"strings"
)

// Accumulator rebuilds an in-progress message from (sequence, chunk) pairs.
// Chunks are kept in a sparse map keyed by sequence number; reconstruction is
// an ordered traversal, so any arrival order converges to the same string once
// the same chunks are present. Chunk counts per streamed message are small
// (tens, not millions), so re-sorting on each delta is the right trade-off.
type Accumulator struct {
	chunks  map[int]string
	content string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		chunks: make(map[int]string),
	}
}

// AddDelta stores or replaces the chunk at the given sequence number, then
// returns the full reconstruction: all stored chunks concatenated in ascending
// sequence order. Gaps are skipped, never padded. Empty chunks are stored like
// any other. A repeated sequence number replaces the previous chunk.
func (a *Accumulator) AddDelta(seq int, chunk string) string {
	a.chunks[seq] = chunk
	a.rebuild()
	return a.content
}

// Content returns the most recent reconstruction without storing anything.
func (a *Accumulator) Content() string {
	return a.content
}

// Has reports whether a chunk is already stored at the given sequence number.
func (a *Accumulator) Has(seq int) bool {
	_, ok := a.chunks[seq]
	return ok
}

// Len returns the number of stored chunks.
func (a *Accumulator) Len() int {
	return len(a.chunks)
}

// Clear resets the accumulator to empty.
func (a *Accumulator) Clear() {
	a.chunks = make(map[int]string)
	a.content = ""
}

func (a *Accumulator) rebuild() {
	seqs := make([]int, 0, len(a.chunks))
	for seq := range a.chunks {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	var b strings.Builder
	for _, seq := range seqs {
		b.WriteString(a.chunks[seq])
	}
	a.content = b.String()
}
