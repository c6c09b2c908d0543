// ABOUTME: Reconciliation policy knobs observed in the wild but not fixed by the product
// ABOUTME: Duplicate-sequence handling and orphan-reply visibility are configurable

package timeline

// OverwritePolicy decides what a repeated sequence number does to the chunk
// already stored for it.
type OverwritePolicy string

const (
	// OverwriteLastWins replaces the stored chunk. Default.
	OverwriteLastWins OverwritePolicy = "last_write_wins"

	// OverwriteFirstWins keeps the first chunk seen for a sequence number.
	OverwriteFirstWins OverwritePolicy = "first_write_wins"
)

// OrphanPolicy decides whether replies whose parent has not arrived yet are
// surfaced in the display projection.
type OrphanPolicy string

const (
	// OrphansShow displays orphans top-level as best effort until the parent
	// arrives and they reclassify. Default.
	OrphansShow OrphanPolicy = "show"

	// OrphansHide keeps orphans in the message store but out of the
	// projection until their parent arrives.
	OrphansHide OrphanPolicy = "hide"
)

// Options carries the policy points for one conversation state instance.
// The zero value means defaults.
type Options struct {
	DeltaOverwrite OverwritePolicy
	OrphanReplies  OrphanPolicy
}

func (o Options) normalized() Options {
	if o.DeltaOverwrite == "" {
		o.DeltaOverwrite = OverwriteLastWins
	}
	if o.OrphanReplies == "" {
		o.OrphanReplies = OrphansShow
	}
	return o
}
