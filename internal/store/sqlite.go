package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avdeev/chatrelay/internal/domain"
	"github.com/avdeev/chatrelay/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository and ensures the schema
// exists. A schema failure here is fatal to the caller: the store cannot be
// used without its tables.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL for concurrent readers; foreign_keys must be set per connection
	// or the messages->sessions reference is silently unenforced.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		last_updated INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES chat_sessions(session_id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session_time ON messages(session_id, timestamp);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertSession creates a session row with createdAt as both timestamps.
func (s *SQLiteStore) InsertSession(ctx context.Context, id string, createdAt time.Time) error {
	query := `INSERT INTO chat_sessions (session_id, created_at, last_updated) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, id, createdAt.UnixMilli(), createdAt.UnixMilli())
	if err != nil {
		if shared.IsSQLiteConstraintError(err) {
			return fmt.Errorf("insert session %s: %w", id, ErrConstraint)
		}
		return fmt.Errorf("insert session %s: %w", id, err)
	}
	return nil
}

// InsertMessage appends one message and bumps the session's recency marker.
// Both statements commit together so a session's last_updated never drifts
// from its newest message.
func (s *SQLiteStore) InsertMessage(ctx context.Context, sessionID string, side domain.Side, content string, ts time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert message: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("failed to roll back insert message", "session_id", sessionID, "error", rbErr)
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		sessionID, string(side), content, ts.UnixMilli(),
	)
	if err != nil {
		if shared.IsSQLiteConstraintError(err) {
			return fmt.Errorf("insert message for session %s: %w", sessionID, ErrConstraint)
		}
		return fmt.Errorf("insert message for session %s: %w", sessionID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE chat_sessions SET last_updated = ? WHERE session_id = ?`,
		ts.UnixMilli(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("update session recency for %s: %w", sessionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert message for session %s: %w", sessionID, err)
	}
	return nil
}

// GetSession retrieves a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT session_id, created_at, last_updated FROM chat_sessions WHERE session_id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var sess domain.Session
	var createdAt, lastUpdated int64

	err := row.Scan(&sess.ID, &createdAt, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess.CreatedAt = time.UnixMilli(createdAt)
	sess.LastUpdated = time.UnixMilli(lastUpdated)

	return &sess, nil
}

// ListSessions returns sessions ordered most-recently-active first. The
// rowid tiebreak keeps the order deterministic when two sessions were last
// active in the same millisecond: later-created wins.
func (s *SQLiteStore) ListSessions(ctx context.Context, onlyWithMessages bool) ([]domain.Session, error) {
	query := `
		SELECT session_id, created_at, last_updated
		FROM chat_sessions
		ORDER BY last_updated DESC, rowid DESC`
	if onlyWithMessages {
		query = `
		SELECT session_id, created_at, last_updated
		FROM chat_sessions
		WHERE EXISTS (SELECT 1 FROM messages WHERE messages.session_id = chat_sessions.session_id)
		ORDER BY last_updated DESC, rowid DESC`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "error", closeErr)
		}
	}()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		var createdAt, lastUpdated int64

		if err := rows.Scan(&sess.ID, &createdAt, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		sess.CreatedAt = time.UnixMilli(createdAt)
		sess.LastUpdated = time.UnixMilli(lastUpdated)
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// ListMessages returns a session's messages ordered oldest first. The id
// tiebreak keeps turns stable when two inserts land on the same millisecond.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	query := `
		SELECT id, session_id, role, content, timestamp
		FROM messages
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages for session %s: %w", sessionID, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "session_id", sessionID, "error", closeErr)
		}
	}()

	turns := []domain.Turn{}
	for rows.Next() {
		var turn domain.Turn
		var role string
		var ts int64

		if err := rows.Scan(&turn.ID, &turn.SessionID, &role, &turn.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		turn.Side = domain.Side(role)
		turn.SentAt = time.UnixMilli(ts)
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages for session %s: %w", sessionID, err)
	}

	return turns, nil
}

// FirstUserMessage returns the earliest user-authored message in a session,
// or "" if there is none.
func (s *SQLiteStore) FirstUserMessage(ctx context.Context, sessionID string) (string, error) {
	query := `
		SELECT content FROM messages
		WHERE session_id = ? AND role = ?
		ORDER BY timestamp ASC, id ASC
		LIMIT 1`

	var content string
	err := s.db.QueryRowContext(ctx, query, sessionID, string(domain.SideUser)).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query first user message for session %s: %w", sessionID, err)
	}
	return content, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
