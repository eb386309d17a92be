package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"esmalte/pkg/esmaltetypes"
)

// SQLiteSessionStore implements esmaltetypes.SessionStore on top of a local
// SQLite database. Each row holds a full conversation document: the message
// list is stored as a JSON blob and replaced wholesale on every update,
// mirroring how the conversation service saves snapshots rather than deltas.
type SQLiteSessionStore struct {
	db *sql.DB
}

const sessionSchema = `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	messages TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_user_updated ON chats(user_id, updated_at DESC);
`

// NewSQLiteSessionStore opens (creating if necessary) the database at path
// and ensures the schema exists.
func NewSQLiteSessionStore(path string) (*SQLiteSessionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return &SQLiteSessionStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new conversation document and returns its ID.
// Timestamps are assigned by the store, not the caller.
func (s *SQLiteSessionStore) CreateSession(ctx context.Context, userID, title string, messages []esmaltetypes.ChatMessage) (string, error) {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, title, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, title, string(encoded), now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// UpdateSession replaces the message list of an existing session and bumps
// its updated_at timestamp. Updating a missing session is an error.
func (s *SQLiteSessionStore) UpdateSession(ctx context.Context, id string, messages []esmaltetypes.ChatMessage) error {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE chats SET messages = ?, updated_at = ? WHERE id = ?`,
		string(encoded), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

// ListSessions returns the user's most recently updated sessions, newest
// first, capped at SessionQueryLimit.
func (s *SQLiteSessionStore) ListSessions(ctx context.Context, userID string) ([]esmaltetypes.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, messages, created_at, updated_at FROM chats WHERE user_id = ? ORDER BY updated_at DESC LIMIT ?`,
		userID, SessionQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []esmaltetypes.ChatSession
	for rows.Next() {
		var session esmaltetypes.ChatSession
		var encoded string
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &encoded, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &session.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode messages for session %s: %w", session.ID, err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns a single session by ID, or (nil, nil) when it does not
// exist.
func (s *SQLiteSessionStore) GetSession(ctx context.Context, id string) (*esmaltetypes.ChatSession, error) {
	var session esmaltetypes.ChatSession
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, messages, created_at, updated_at FROM chats WHERE id = ?`, id).
		Scan(&session.ID, &session.UserID, &session.Title, &encoded, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages for session %s: %w", session.ID, err)
	}
	return &session, nil
}

// DeleteSession removes a session. Deleting a missing session is not an
// error.
func (s *SQLiteSessionStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
