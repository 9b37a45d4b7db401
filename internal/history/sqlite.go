package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"github.com/chatvault/chatvault/internal/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    metadata TEXT,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(content, content='messages', content_rowid='id');
CREATE TRIGGER IF NOT EXISTS messages_fts_insert AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.id, new.content);
END;
CREATE TRIGGER IF NOT EXISTS messages_fts_delete AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;
`

// SQLiteStore persists histories in a local SQLite database. Search is backed
// by an FTS5 index kept in sync by triggers.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "history.db"
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create sqlite schema: %w", err)
	}
	logger.L.Info("sqlite history store initialized", "path", path)
	return &SQLiteStore{db: db}, nil
}

// AddMessage inserts msg.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg Message) error {
	var meta any
	if len(msg.Metadata) > 0 {
		b, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("history: encode metadata: %w", err)
		}
		meta = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, metadata, created_at) VALUES (?,?,?,?,?,?);`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, meta, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("history: insert message: %w", err)
	}
	return nil
}

// Messages returns the session's messages in insertion order.
func (s *SQLiteStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, role, content, metadata, created_at FROM messages WHERE session_id = ? ORDER BY id ASC;`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("history: query messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Search runs an FTS5 match over the session's messages, best match first.
func (s *SQLiteStore) Search(ctx context.Context, sessionID, query string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.message_id, m.session_id, m.role, m.content, m.metadata, m.created_at
         FROM messages m JOIN messages_fts f ON f.rowid = m.id
         WHERE messages_fts MATCH ? AND m.session_id = ?
         ORDER BY rank;`,
		ftsQuote(query), sessionID)
	if err != nil {
		return nil, fmt.Errorf("history: search messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Clear deletes all of the session's messages. The FTS index follows via
// trigger.
func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?;`, sessionID); err != nil {
		return fmt.Errorf("history: clear session: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		var meta sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan message: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("history: decode metadata: %w", err)
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate messages: %w", err)
	}
	return out, nil
}

// ftsQuote wraps query as a single FTS5 string literal so user input can't
// inject match syntax.
func ftsQuote(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}
