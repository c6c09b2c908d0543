// ABOUTME: Event records as delivered by the pub/sub subscription layer
// ABOUTME: Defines kinds, minimal shape validation, and the JSON codec used by replay tooling

package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind discriminates the event types the reconciliation engine understands.
type Kind string

const (
	// KindMessage is a complete, immutable message. It supersedes any
	// in-progress streaming session from the same author.
	KindMessage Kind = "message"

	// KindDelta is one fragment of a message still being composed,
	// identified by a per-author integer sequence number.
	KindDelta Kind = "delta"

	// KindTypingStart and KindTypingStop toggle an author's ephemeral
	// composing indicator.
	KindTypingStart Kind = "typing_start"
	KindTypingStop  Kind = "typing_stop"
)

// ErrMissingID indicates an event arrived without an identity.
var ErrMissingID = errors.New("event missing id")

// ErrMissingAuthor indicates an event arrived without an author identity.
var ErrMissingAuthor = errors.New("event missing author")

// ErrMissingSequence indicates a delta event arrived without a sequence number.
var ErrMissingSequence = errors.New("delta event missing sequence number")

// ErrMissingTimestamp indicates a message or delta event arrived without a creation time.
var ErrMissingTimestamp = errors.New("event missing creation timestamp")

// ErrUnknownKind indicates an event kind the engine does not recognize.
var ErrUnknownKind = errors.New("unknown event kind")

// Event is one record from the subscription layer. Fields that only apply to
// some kinds are pointers or zero values for the rest.
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Author    string            `json:"author"`
	CreatedAt time.Time         `json:"created_at"`
	Content   string            `json:"content,omitempty"`
	Sequence  *int              `json:"seq,omitempty"`       // deltas only
	ParentID  string            `json:"parent_id,omitempty"` // messages; empty means root-level
	Tags      map[string]string `json:"tags,omitempty"`      // passthrough transport metadata
}

// Validate checks the minimal shape requirements for the event's kind.
// Events failing validation are dropped by the engine without state change.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if e.Author == "" {
		return ErrMissingAuthor
	}

	switch e.Kind {
	case KindMessage:
		if e.CreatedAt.IsZero() {
			return ErrMissingTimestamp
		}
	case KindDelta:
		if e.Sequence == nil {
			return ErrMissingSequence
		}
		if e.CreatedAt.IsZero() {
			return ErrMissingTimestamp
		}
	case KindTypingStart, KindTypingStop:
		// Presence events need only an author.
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	return nil
}

// Decode parses a single JSON-encoded event, e.g. one line of a JSONL event
// log. Decode reports parse errors only; shape validation is separate so the
// engine can drop malformed events silently.
func Decode(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return &e, nil
}

// Encode serializes the event as a single JSON line without trailing newline.
func (e *Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	return data, nil
}

// Seq returns the event's sequence number, or -1 if it has none.
func (e *Event) Seq() int {
	if e.Sequence == nil {
		return -1
	}
	return *e.Sequence
}
