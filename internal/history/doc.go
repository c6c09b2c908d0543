// Package history persists finalized messages to a local SQLite ledger so a
// conversation view survives restarts. Only finalized messages are stored;
// streaming sessions and presence indicators are ephemeral by design.
//
// The store implements feed.Archiver for live archiving, and Replay loads a
// conversation back into a fresh timeline.State on open.
package history
