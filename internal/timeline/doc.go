// Package timeline reconciles the causally-unordered event stream of one
// conversation into a single consistent view.
//
// # State
//
// State is the orchestrator and single ingestion point:
//
//	st := timeline.New(rootID, logger)
//	st.Apply(ev)                  // dispatches by event kind, never errors
//	view := st.DisplayMessages()  // ordered projection for the display layer
//
// Incoming events route to three collaborators:
//
//   - finalized messages upsert into the MessageStore, then synchronously
//     destroy the author's streaming Session and presence Indicator
//   - streaming deltas open or feed the author's Session, whose fragment
//     accumulator tolerates out-of-order, gapped, and duplicated arrival
//   - typing start/stop events toggle the PresenceTracker
//
// # Projection
//
// DisplayMessages returns the root and direct replies plus one synthetic
// streaming entry per active session, ascending by creation time. Replies
// nested deeper than one level collapse into a count and an author preview
// (first-seen order, capped at 3) on their direct-reply ancestor; the full
// subtree stays available through Replies for expand-on-demand views.
//
// # Ownership
//
// A State instance exclusively owns its stores and sessions and uses no
// locks. All calls must be serialized by the owner, e.g. the mailbox loop in
// internal/feed.
package timeline
