// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/avdeev/chatrelay/internal/domain"
)

// ErrConstraint is returned when a write violates a relational constraint:
// inserting a session whose id already exists, or a message whose session id
// references no session. Neither happens in normal flow (ids are generated,
// sessions always precede their messages), so callers should treat it as a
// logic defect rather than recover from it.
var ErrConstraint = errors.New("constraint violation")

// Repository defines the interface for persisting sessions and messages.
type Repository interface {
	// InsertSession creates a session row. createdAt is used for both the
	// creation and last-updated timestamps. Fails with ErrConstraint if the
	// id already exists.
	InsertSession(ctx context.Context, id string, createdAt time.Time) error

	// InsertMessage appends one message to a session and bumps the session's
	// last_updated to ts in the same transaction. Fails with ErrConstraint
	// if sessionID references no session.
	InsertMessage(ctx context.Context, sessionID string, side domain.Side, content string, ts time.Time) error

	// GetSession retrieves a session by id, or nil if it does not exist.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns sessions ordered most-recently-active first
	// (last_updated descending). When onlyWithMessages is true, sessions
	// that have no messages yet are excluded.
	ListSessions(ctx context.Context, onlyWithMessages bool) ([]domain.Session, error)

	// ListMessages returns all messages for a session, ordered oldest first.
	// A session with no messages yields an empty slice, not an error.
	ListMessages(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// FirstUserMessage returns the content of the earliest user-authored
	// message in a session, or "" if the session has none.
	FirstUserMessage(ctx context.Context, sessionID string) (string, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
