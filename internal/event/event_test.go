// ABOUTME: Tests for event shape validation and the JSON codec
// ABOUTME: Covers per-kind required fields and JSONL round-trips

package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestValidate_PerKindRequirements(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{
			name:  "valid message",
			event: Event{ID: "e1", Kind: KindMessage, Author: "alice", CreatedAt: now, Content: "hi"},
		},
		{
			name:  "valid root-level message without parent",
			event: Event{ID: "e2", Kind: KindMessage, Author: "alice", CreatedAt: now},
		},
		{
			name:  "valid delta",
			event: Event{ID: "e3", Kind: KindDelta, Author: "bob", CreatedAt: now, Sequence: intPtr(0)},
		},
		{
			name:  "valid typing start without timestamp",
			event: Event{ID: "e4", Kind: KindTypingStart, Author: "bob"},
		},
		{
			name:    "missing id",
			event:   Event{Kind: KindMessage, Author: "alice", CreatedAt: now},
			wantErr: ErrMissingID,
		},
		{
			name:    "missing author",
			event:   Event{ID: "e5", Kind: KindTypingStop},
			wantErr: ErrMissingAuthor,
		},
		{
			name:    "delta without sequence",
			event:   Event{ID: "e6", Kind: KindDelta, Author: "bob", CreatedAt: now},
			wantErr: ErrMissingSequence,
		},
		{
			name:    "message without timestamp",
			event:   Event{ID: "e7", Kind: KindMessage, Author: "alice"},
			wantErr: ErrMissingTimestamp,
		},
		{
			name:    "unknown kind",
			event:   Event{ID: "e8", Kind: "reaction", Author: "alice"},
			wantErr: ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	original := &Event{
		ID:        "evt-42",
		Kind:      KindDelta,
		Author:    "carol",
		CreatedAt: created,
		Content:   "partial ch",
		Sequence:  intPtr(7),
		Tags:      map[string]string{"relay": "wss://relay.example"},
	}

	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Kind, decoded.Kind)
	assert.Equal(t, original.Author, decoded.Author)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, original.Content, decoded.Content)
	require.NotNil(t, decoded.Sequence)
	assert.Equal(t, 7, *decoded.Sequence)
	assert.Equal(t, original.Tags, decoded.Tags)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	require.Error(t, err)
}

func TestSeq_DefaultsToMinusOne(t *testing.T) {
	e := &Event{ID: "e1", Kind: KindMessage, Author: "alice"}
	assert.Equal(t, -1, e.Seq())

	e.Sequence = intPtr(3)
	assert.Equal(t, 3, e.Seq())
}
