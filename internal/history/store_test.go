// ABOUTME: Tests for the SQLite history ledger
// ABOUTME: Covers upsert semantics, chronological listing, pagination, and replay

package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/timeline"
)

var storeBase = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMessage(id, author, parent, content string, at time.Time) *timeline.Message {
	return &timeline.Message{
		ID:        id,
		Author:    author,
		ParentID:  parent,
		Content:   content,
		CreatedAt: at,
		Status:    timeline.StatusSent,
	}
}

func TestSaveMessage_AndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := testMessage("m1", "alice", "", "hello", storeBase)
	require.NoError(t, s.SaveMessage(ctx, "conv-1", m))

	got, err := s.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "", got.ParentID)
	assert.Equal(t, timeline.StatusSent, got.Status)
	assert.True(t, got.CreatedAt.Equal(storeBase))
}

func TestGetMessage_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetMessage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMessage_UpsertOverwritesInPlace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMessage(ctx, "conv-1",
		testMessage("m1", "alice", "", "optimistic", storeBase)))
	require.NoError(t, s.SaveMessage(ctx, "conv-1",
		testMessage("m1", "alice", "root", "authoritative", storeBase)))

	msgs, err := s.ListMessages(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "authoritative", msgs[0].Content)
	assert.Equal(t, "root", msgs[0].ParentID)
}

func TestSaveMessage_RejectsMissingIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.SaveMessage(ctx, "", testMessage("m1", "alice", "", "x", storeBase)))
	assert.Error(t, s.SaveMessage(ctx, "conv-1", nil))
	assert.Error(t, s.SaveMessage(ctx, "conv-1", &timeline.Message{Author: "alice"}))
}

func TestListMessages_ChronologicalRegardlessOfSaveOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMessage(ctx, "conv-1",
		testMessage("m3", "carol", "", "third", storeBase.Add(3*time.Minute))))
	require.NoError(t, s.SaveMessage(ctx, "conv-1",
		testMessage("m1", "alice", "", "first", storeBase.Add(time.Minute))))
	require.NoError(t, s.SaveMessage(ctx, "conv-1",
		testMessage("m2", "bob", "", "second", storeBase.Add(2*time.Minute))))

	msgs, err := s.ListMessages(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, "m3", msgs[2].ID)
}

func TestListMessages_IsolatedByConversation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMessage(ctx, "conv-1", testMessage("m1", "alice", "", "one", storeBase)))
	require.NoError(t, s.SaveMessage(ctx, "conv-2", testMessage("m2", "bob", "", "two", storeBase)))

	msgs, err := s.ListMessages(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
}

func TestGetPage_PaginatesWithCursor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		m := testMessage(
			fmt.Sprintf("m%d", i), "alice", "", fmt.Sprintf("msg %d", i),
			storeBase.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, s.SaveMessage(ctx, "conv-1", m))
	}

	page1, err := s.GetPage(ctx, PageParams{ConversationID: "conv-1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1.Messages, 2)
	assert.True(t, page1.HasMore)
	assert.NotEmpty(t, page1.NextCursor)
	assert.Equal(t, "m0", page1.Messages[0].ID)

	page2, err := s.GetPage(ctx, PageParams{ConversationID: "conv-1", Limit: 2, Cursor: page1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Messages, 2)
	assert.True(t, page2.HasMore)
	assert.Equal(t, "m2", page2.Messages[0].ID)

	page3, err := s.GetPage(ctx, PageParams{ConversationID: "conv-1", Limit: 2, Cursor: page2.NextCursor})
	require.NoError(t, err)
	require.Len(t, page3.Messages, 1)
	assert.False(t, page3.HasMore)
	assert.Empty(t, page3.NextCursor)
	assert.Equal(t, "m4", page3.Messages[0].ID)
}

func TestGetPage_RejectsBadCursor(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetPage(context.Background(), PageParams{ConversationID: "conv-1", Cursor: "not-base64!"})
	require.Error(t, err)
}

func TestGetPage_RequiresConversationID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetPage(context.Background(), PageParams{})
	require.Error(t, err)
}

func TestListConversations_CountsAndOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMessage(ctx, "conv-old", testMessage("m1", "alice", "", "x", storeBase)))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.SaveMessage(ctx, "conv-new", testMessage("m2", "bob", "", "y", storeBase)))
	require.NoError(t, s.SaveMessage(ctx, "conv-new", testMessage("m3", "bob", "", "z", storeBase)))

	convs, err := s.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "conv-new", convs[0].ID)
	assert.Equal(t, 2, convs[0].MessageCount)
	assert.Equal(t, "conv-old", convs[1].ID)
	assert.Equal(t, 1, convs[1].MessageCount)
}

func TestReplay_RestoresConversationState(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMessage(ctx, "root",
		testMessage("root", "alice", "", "thread start", storeBase)))
	require.NoError(t, s.SaveMessage(ctx, "root",
		testMessage("d", "bob", "root", "direct", storeBase.Add(time.Minute))))
	require.NoError(t, s.SaveMessage(ctx, "root",
		testMessage("n1", "carol", "d", "nested", storeBase.Add(2*time.Minute))))

	st := timeline.New("root", nil)
	require.NoError(t, s.Replay(ctx, "root", st))

	view := st.DisplayMessages()
	require.Len(t, view, 2)
	assert.Equal(t, "root", view[0].ID)
	assert.Equal(t, "d", view[1].ID)
	assert.Equal(t, 1, view[1].NestedReplyCount)
}
