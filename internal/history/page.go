// ABOUTME: Cursor-based pagination over a conversation's archived messages
// ABOUTME: Cursors are opaque base64(timestamp|message_id) tokens

package history

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2389/parley/internal/timeline"
)

// PageParams specifies a paginated history query.
type PageParams struct {
	ConversationID string // required
	Limit          int    // 1-500, defaults to 50
	Cursor         string // opaque cursor from a previous page, empty for the first
}

// Page is one page of chronologically ordered messages.
type Page struct {
	Messages   []*timeline.Message
	NextCursor string // empty when there are no more pages
	HasMore    bool
}

// encodeCursor creates an opaque cursor from a timestamp and message ID.
func encodeCursor(ts time.Time, id string) string {
	data := fmt.Sprintf("%s|%s", ts.UTC().Format(time.RFC3339Nano), id)
	return base64.StdEncoding.EncodeToString([]byte(data))
}

// decodeCursor parses an opaque cursor back into a timestamp and message ID.
func decodeCursor(cursor string) (time.Time, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid cursor format: expected timestamp|message_id")
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor timestamp: %w", err)
	}

	return ts, parts[1], nil
}

// GetPage retrieves one page of a conversation's messages, oldest first.
// Ordering is (created_at, id) so pagination is deterministic even when
// multiple messages share a timestamp.
func (s *Store) GetPage(ctx context.Context, p PageParams) (*Page, error) {
	if p.ConversationID == "" {
		return nil, errors.New("conversation id required")
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 500 {
		p.Limit = 500
	}

	var args []any
	query := `
		SELECT id, author, parent_id, content, status, created_at
		FROM messages
		WHERE conversation_id = ?
	`
	args = append(args, p.ConversationID)

	if p.Cursor != "" {
		cursorTS, cursorID, err := decodeCursor(p.Cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query += ` AND (created_at > ? OR (created_at = ? AND id > ?))`
		ts := cursorTS.UTC().Format(time.RFC3339Nano)
		args = append(args, ts, ts, cursorID)
	}

	query += ` ORDER BY created_at ASC, id ASC LIMIT ?`
	// Fetch one extra row to detect whether more pages exist.
	args = append(args, p.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying message page: %w", err)
	}
	defer rows.Close()

	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	page := &Page{HasMore: len(msgs) > p.Limit}
	if page.HasMore {
		msgs = msgs[:p.Limit]
	}
	page.Messages = msgs

	if page.HasMore && len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}
