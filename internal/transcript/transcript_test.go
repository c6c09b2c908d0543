// ABOUTME: Tests for transcript rendering
// ABOUTME: Covers HTML conversion, markdown handling, badges, and reply summaries

package transcript

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/timeline"
)

var transcriptBase = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func sampleView() []timeline.DisplayMessage {
	return []timeline.DisplayMessage{
		{
			ID:        "root",
			Author:    "alice",
			Content:   "Shall we **ship** it?",
			CreatedAt: transcriptBase,
			Status:    timeline.StatusSent,
		},
		{
			ID:                 "d1",
			Author:             "bob",
			Content:            "Yes, after review.",
			CreatedAt:          transcriptBase.Add(time.Minute),
			Status:             timeline.StatusSent,
			NestedReplyCount:   3,
			NestedReplyAuthors: []string{"carol", "dave"},
		},
		{
			ID:        "s1",
			Author:    "carol",
			Content:   "partial tho",
			CreatedAt: transcriptBase.Add(2 * time.Minute),
			Streaming: true,
		},
	}
}

func TestWriteHTML_RendersMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "Release thread", sampleView()))

	html := buf.String()
	assert.Contains(t, html, "<title>Release thread</title>")
	assert.Contains(t, html, "alice")
	// Markdown body converted to HTML
	assert.Contains(t, html, "<strong>ship</strong>")
	// Streaming placeholder carries its badge
	assert.Contains(t, html, `class="badge streaming"`)
	// Collapsed reply summary
	assert.Contains(t, html, "3 replies from carol, dave")
}

func TestWriteHTML_EscapesRawHTMLInContent(t *testing.T) {
	view := []timeline.DisplayMessage{{
		ID:        "m1",
		Author:    "mallory",
		Content:   "<script>alert(1)</script>",
		CreatedAt: transcriptBase,
		Status:    timeline.StatusSent,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "t", view))

	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestWriteHTML_EmptyView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "empty", nil))
	assert.Contains(t, buf.String(), "<title>empty</title>")
}

func TestWriteText_RendersAllMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleView()))

	text := buf.String()
	assert.Contains(t, text, "alice")
	assert.Contains(t, text, "Shall we **ship** it?")
	assert.Contains(t, text, "(typing…)")
	assert.Contains(t, text, "3 replies from carol, dave")
}

func TestWriteText_StatusMarkers(t *testing.T) {
	view := []timeline.DisplayMessage{
		{ID: "p", Author: "alice", Content: "x", CreatedAt: transcriptBase, Status: timeline.StatusPending},
		{ID: "f", Author: "alice", Content: "y", CreatedAt: transcriptBase, Status: timeline.StatusFailed},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, view))

	assert.Contains(t, buf.String(), "(sending)")
	assert.Contains(t, buf.String(), "(failed)")
}

func TestReplyLine(t *testing.T) {
	tests := []struct {
		name string
		msg  timeline.DisplayMessage
		want string
	}{
		{
			name: "no replies",
			msg:  timeline.DisplayMessage{},
			want: "",
		},
		{
			name: "single reply",
			msg:  timeline.DisplayMessage{NestedReplyCount: 1, NestedReplyAuthors: []string{"bob"}},
			want: "1 reply from bob",
		},
		{
			name: "several replies",
			msg:  timeline.DisplayMessage{NestedReplyCount: 4, NestedReplyAuthors: []string{"bob", "carol"}},
			want: "4 replies from bob, carol",
		},
		{
			name: "count without authors",
			msg:  timeline.DisplayMessage{NestedReplyCount: 2},
			want: "2 replies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, replyLine(tt.msg))
		})
	}
}
