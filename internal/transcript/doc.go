// Package transcript exports a reconciled conversation as a shareable document.
//
// Two formats are supported: a standalone HTML page (message bodies converted
// from markdown with goldmark) and a plain text dump. Both operate on the
// display projection, so streaming placeholders, delivery badges, and collapsed
// reply summaries appear exactly as a client would show them.
package transcript
