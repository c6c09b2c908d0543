// ABOUTME: Two-level reply classification derived from the flat message store
// ABOUTME: Nested subtrees collapse into count plus author-preview aggregates on their direct-reply ancestor

package timeline

// nestedAuthorPreviewCap bounds the author preview on a collapsed subtree.
const nestedAuthorPreviewCap = 3

const (
	depthOrphan = -1
	depthRoot   = 0
	depthDirect = 1
)

// replyStats aggregates one direct reply's collapsed subtree.
type replyStats struct {
	count   int
	authors []string // distinct, first-seen order, capped
	seen    map[string]struct{}
}

func (r *replyStats) addAuthor(author string) {
	if _, ok := r.seen[author]; ok {
		return
	}
	r.seen[author] = struct{}{}
	if len(r.authors) < nestedAuthorPreviewCap {
		r.authors = append(r.authors, author)
	}
}

// replyIndex classifies every stored message relative to the conversation
// root. Depth 0 is the root (and root-level messages with no parent), depth 1
// is a direct reply, depth >= 2 is a nested reply collapsed onto its depth-1
// ancestor. Messages whose parent chain cannot be resolved are orphans.
type replyIndex struct {
	rootID string
	store  *MessageStore

	depth  map[string]int
	anchor map[string]string // nested reply -> its direct-reply ancestor
	stats  map[string]*replyStats
}

// buildReplyIndex computes the index from the full store. It is recomputed on
// demand by the projection; the store is the only input, so a reply arriving
// before its parent reclassifies naturally on the next build.
func buildReplyIndex(rootID string, store *MessageStore) *replyIndex {
	idx := &replyIndex{
		rootID: rootID,
		store:  store,
		depth:  make(map[string]int),
		anchor: make(map[string]string),
		stats:  make(map[string]*replyStats),
	}

	for _, m := range store.All() {
		idx.resolve(m.ID, make(map[string]bool))
	}

	// Aggregate nested subtrees in store insertion order so the author
	// preview keeps "who joined the side-conversation first" semantics.
	for _, m := range store.All() {
		if idx.depth[m.ID] < 2 {
			continue
		}
		anchorID := idx.anchor[m.ID]
		st, ok := idx.stats[anchorID]
		if !ok {
			st = &replyStats{seen: make(map[string]struct{})}
			idx.stats[anchorID] = st
		}
		st.count++
		st.addAuthor(m.Author)
	}

	return idx
}

// resolve walks the parent chain, memoizing depth and direct-reply anchor.
// walking guards against reference cycles, which resolve as orphans.
func (idx *replyIndex) resolve(id string, walking map[string]bool) (depth int, anchor string) {
	if id == idx.rootID {
		return depthRoot, ""
	}
	if d, ok := idx.depth[id]; ok {
		return d, idx.anchor[id]
	}
	if walking[id] {
		return depthOrphan, ""
	}

	m, ok := idx.store.Get(id)
	if !ok {
		return depthOrphan, ""
	}

	walking[id] = true
	defer delete(walking, id)

	switch {
	case m.ParentID == "":
		depth, anchor = depthRoot, ""
	default:
		parentDepth, parentAnchor := idx.resolve(m.ParentID, walking)
		switch {
		case parentDepth == depthOrphan:
			depth, anchor = depthOrphan, ""
		case parentDepth == depthRoot:
			depth, anchor = depthDirect, id
		default:
			depth, anchor = parentDepth+1, parentAnchor
		}
	}

	idx.depth[id] = depth
	idx.anchor[id] = anchor
	return depth, anchor
}

// Stats returns the collapsed-subtree aggregates for the given message.
// The root and nested replies always report a zero count.
func (idx *replyIndex) Stats(id string) (count int, authors []string) {
	st, ok := idx.stats[id]
	if !ok || idx.depth[id] != depthDirect {
		return 0, nil
	}
	return st.count, st.authors
}

// Depth returns the resolved depth for the given message, or depthOrphan if
// its parent chain does not reach the root.
func (idx *replyIndex) Depth(id string) int {
	if id == idx.rootID {
		return depthRoot
	}
	d, ok := idx.depth[id]
	if !ok {
		return depthOrphan
	}
	return d
}

// Subtree returns every message transitively descending from the given
// identity, in store insertion order.
func (idx *replyIndex) Subtree(id string) []*Message {
	var out []*Message
	for _, m := range idx.store.All() {
		if m.ID == id {
			continue
		}
		if idx.descendsFrom(m.ID, id) {
			out = append(out, m)
		}
	}
	return out
}

// descendsFrom walks up the parent chain looking for ancestor.
func (idx *replyIndex) descendsFrom(id, ancestor string) bool {
	seen := make(map[string]bool)
	for cur := id; cur != "" && !seen[cur]; {
		seen[cur] = true
		m, ok := idx.store.Get(cur)
		if !ok {
			return false
		}
		if m.ParentID == ancestor {
			return true
		}
		cur = m.ParentID
	}
	return false
}
