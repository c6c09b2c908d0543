// Package fragment reassembles streamed message text from sequence-numbered
// chunks that may arrive out of order, with gaps, or duplicated.
package fragment
