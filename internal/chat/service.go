// Package chat implements session management and the conversation log: the
// persistence and continuity core that the HTTP layer and the web front-end
// sit on top of.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avdeev/chatrelay/internal/domain"
	"github.com/avdeev/chatrelay/internal/store"
	"github.com/google/uuid"
)

// Gateway converts one user message into one assistant reply. Implementations
// are expected to fail often enough that the caller treats errors as a normal
// outcome; the user's message is persisted before Send is ever called.
type Gateway interface {
	Send(ctx context.Context, sessionID, text string) (string, error)
}

// Service owns session lifecycle and transcript access. It holds no ambient
// state: every call names its session explicitly.
type Service struct {
	repo        store.Repository
	gw          Gateway
	hideEmpty   bool
	previewKeep int
}

// NewService creates a chat service. hideEmpty controls whether the session
// listing excludes sessions that have no messages yet.
func NewService(repo store.Repository, gw Gateway, hideEmpty bool) *Service {
	return &Service{
		repo:        repo,
		gw:          gw,
		hideEmpty:   hideEmpty,
		previewKeep: 24,
	}
}

// NewSession generates a fresh session id and persists it. Collisions in the
// 128-bit random id space are accepted as negligible, and the primary key
// would surface one as a constraint violation rather than silent reuse.
func (s *Service) NewSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.repo.InsertSession(ctx, id, time.Now()); err != nil {
		slog.Error("failed to create session", "operation", "new_session", "session_id", id, "error", err)
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Sessions returns sidebar entries ordered most-recently-active first, each
// with a preview resolved from the session's first user message.
func (s *Service) Sessions(ctx context.Context) ([]domain.SessionSummary, error) {
	sessions, err := s.repo.ListSessions(ctx, s.hideEmpty)
	if err != nil {
		slog.Error("failed to list sessions", "operation", "sessions", "error", err)
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		first, err := s.repo.FirstUserMessage(ctx, sess.ID)
		if err != nil {
			slog.Error("failed to resolve session preview", "operation", "sessions", "session_id", sess.ID, "error", err)
			return nil, fmt.Errorf("resolve preview for session %s: %w", sess.ID, err)
		}
		summaries = append(summaries, domain.SessionSummary{
			ID:          sess.ID,
			CreatedAt:   sess.CreatedAt,
			LastUpdated: sess.LastUpdated,
			Preview:     truncatePreview(first, s.previewKeep),
		})
	}
	return summaries, nil
}

// Transcript returns a session's full ordered turn sequence. A session with
// no turns yet yields an empty slice.
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	turns, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load transcript", "operation", "transcript", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("load transcript for session %s: %w", sessionID, err)
	}
	return turns, nil
}

// Send records the user's turn, invokes the gateway, and records the reply.
// On gateway failure the user turn stays as the last recorded turn, so the
// original input is available for an explicit retry; nothing is retried
// automatically.
func (s *Service) Send(ctx context.Context, sessionID, text string) (domain.Turn, error) {
	if err := s.appendTurn(ctx, sessionID, domain.SideUser, text); err != nil {
		return domain.Turn{}, err
	}

	reply, err := s.gw.Send(ctx, sessionID, text)
	if err != nil {
		slog.Warn("gateway send failed", "operation", "send", "session_id", sessionID, "error", err)
		return domain.Turn{}, err
	}

	return s.appendReply(ctx, sessionID, reply)
}

// Retry re-invokes the gateway with a previously sent user message and
// appends only a new assistant turn. The original exchange is never touched;
// ordering by timestamp preserves the sequence in which retries were asked.
func (s *Service) Retry(ctx context.Context, sessionID, userText string) (domain.Turn, error) {
	// Resolve the session before spending the gateway round trip; otherwise
	// an unknown id would fire a real webhook call whose reply is discarded
	// at the foreign-key check anyway.
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to resolve session", "operation", "retry", "session_id", sessionID, "error", err)
		return domain.Turn{}, fmt.Errorf("resolve session %s: %w", sessionID, err)
	}
	if sess == nil {
		return domain.Turn{}, fmt.Errorf("retry for session %s: %w", sessionID, store.ErrConstraint)
	}

	reply, err := s.gw.Send(ctx, sessionID, userText)
	if err != nil {
		slog.Warn("gateway retry failed", "operation", "retry", "session_id", sessionID, "error", err)
		return domain.Turn{}, err
	}

	return s.appendReply(ctx, sessionID, reply)
}

func (s *Service) appendReply(ctx context.Context, sessionID, reply string) (domain.Turn, error) {
	now := time.Now()
	if err := s.appendTurnAt(ctx, sessionID, domain.SideAssistant, reply, now); err != nil {
		return domain.Turn{}, err
	}
	return domain.Turn{
		SessionID: sessionID,
		Side:      domain.SideAssistant,
		Text:      reply,
		SentAt:    now,
	}, nil
}

func (s *Service) appendTurn(ctx context.Context, sessionID string, side domain.Side, text string) error {
	return s.appendTurnAt(ctx, sessionID, side, text, time.Now())
}

func (s *Service) appendTurnAt(ctx context.Context, sessionID string, side domain.Side, text string, ts time.Time) error {
	if err := s.repo.InsertMessage(ctx, sessionID, side, text, ts); err != nil {
		slog.Error("failed to append turn", "operation", "append_turn", "session_id", sessionID, "side", side, "error", err)
		return fmt.Errorf("append %s turn to session %s: %w", side, sessionID, err)
	}
	return nil
}

// truncatePreview shortens a first message for sidebar display: keep runes
// plus a little slack, so a message only slightly over the limit is shown
// whole rather than replaced by an ellipsis of the same width.
func truncatePreview(text string, keep int) string {
	runes := []rune(text)
	if len(runes) <= keep+3 {
		return text
	}
	return string(runes[:keep]) + "..."
}
