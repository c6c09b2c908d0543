// Package feed provides the single-writer discipline around a conversation
// state: a mailbox loop that applies events strictly one at a time, a
// deduplication window for pub/sub redeliveries, and a snapshot broadcaster
// so display layers subscribe to state changes instead of owning mutation.
//
// # Loop
//
//	st := timeline.New(rootID, logger)
//	loop := feed.NewLoop(st, feed.LoopConfig{Archive: historyStore}, logger)
//	go loop.Run(ctx)
//
//	loop.Submit(ctx, ev)            // from the subscription layer
//	view, _ := loop.Snapshot(ctx)   // serialized read
//	ch, _ := loop.Subscribe(ctx)    // push-based view updates
//
// The engine performs no I/O of its own; archiving finalized messages to the
// optional history store is the loop's responsibility and is best-effort.
package feed
