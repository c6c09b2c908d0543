// Package event defines the records handed to the reconciliation engine by
// the pub/sub subscription layer, along with their minimal shape validation
// and a JSON codec for event logs.
//
// The engine does not validate cross-conversation routing: an event that
// references a conversation other than the one a state instance was built
// for must be routed elsewhere by the caller before it reaches the engine.
package event
