// ABOUTME: Local SQLite ledger of finalized messages using modernc.org/sqlite
// ABOUTME: Upsert-by-identity persistence with chronological listing and replay

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/2389/parley/internal/timeline"
)

// ErrNotFound is returned when a requested message does not exist.
var ErrNotFound = errors.New("message not found")

// Store persists finalized messages per conversation. Streaming sessions and
// presence indicators are ephemeral by design and are never written here.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the ledger at the given path. The schema is created
// if it doesn't exist; parent directories are created as needed.
func Open(path string) (*Store, error) {
	logger := slog.Default().With("component", "history")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	// WAL mode lets the feed loop write while a reader pages through history.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("history ledger opened", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			author          TEXT NOT NULL,
			parent_id       TEXT,
			content         TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'sent',
			created_at      TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages(conversation_id);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
			ON messages(conversation_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMessage upserts a finalized message. Re-saving an identity overwrites
// in place, matching the engine's last-write-wins store semantics, so an
// optimistic copy later reconciled by the network converges on disk too.
func (s *Store) SaveMessage(ctx context.Context, conversationID string, m *timeline.Message) error {
	if conversationID == "" {
		return errors.New("conversation id required")
	}
	if m == nil || m.ID == "" {
		return errors.New("message id required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, conversationID, now, now); err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}

	status := m.Status
	if status == "" {
		status = timeline.StatusSent
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, author, parent_id, content, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			author     = excluded.author,
			parent_id  = excluded.parent_id,
			content    = excluded.content,
			status     = excluded.status,
			created_at = excluded.created_at
	`,
		m.ID,
		conversationID,
		m.Author,
		nullable(m.ParentID),
		m.Content,
		string(status),
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upserting message: %w", err)
	}

	s.logger.Debug("message archived",
		"message_id", m.ID,
		"conversation_id", conversationID)
	return nil
}

// GetMessage retrieves a single message by identity.
func (s *Store) GetMessage(ctx context.Context, id string) (*timeline.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, author, parent_id, content, status, created_at
		FROM messages
		WHERE id = ?
	`, id)

	m, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}
	return m, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]*timeline.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, parent_id, content, status, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// ConversationInfo summarizes one stored conversation.
type ConversationInfo struct {
	ID           string
	MessageCount int
	UpdatedAt    time.Time
}

// ListConversations returns every stored conversation, most recently updated
// first.
func (s *Store) ListConversations(ctx context.Context) ([]ConversationInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.updated_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var out []ConversationInfo
	for rows.Next() {
		var info ConversationInfo
		var updatedStr string
		if err := rows.Scan(&info.ID, &updatedStr, &info.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return out, nil
}

// Replay loads a conversation's archived messages into a fresh state, oldest
// first, so a reopened client starts from local history before live events
// arrive.
func (s *Store) Replay(ctx context.Context, conversationID string, st *timeline.State) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, parent_id, content, status, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return fmt.Errorf("querying messages for replay: %w", err)
	}
	defer rows.Close()

	msgs, err := collectMessages(rows)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		st.Restore(m)
	}

	s.logger.Debug("conversation replayed",
		"conversation_id", conversationID,
		"messages", len(msgs))
	return nil
}

func collectMessages(rows *sql.Rows) ([]*timeline.Message, error) {
	var out []*timeline.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return out, nil
}

func scanMessage(scan func(...any) error) (*timeline.Message, error) {
	var (
		m          timeline.Message
		parentID   sql.NullString
		status     string
		createdStr string
	)
	if err := scan(&m.ID, &m.Author, &parentID, &m.Content, &status, &createdStr); err != nil {
		return nil, err
	}
	if parentID.Valid {
		m.ParentID = parentID.String
	}
	m.Status = timeline.DeliveryStatus(status)

	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	m.CreatedAt = created
	return &m, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
