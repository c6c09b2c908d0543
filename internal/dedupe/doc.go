// Package dedupe provides a time-based window of seen event identities used
// to drop pub/sub redeliveries before they reach the reconciliation engine.
package dedupe
