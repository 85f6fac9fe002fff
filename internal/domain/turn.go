package domain

import (
	"time"
)

// Side identifies which party authored a turn.
type Side string

// Turn authors. These values are also the persisted role column.
const (
	SideUser      Side = "user"
	SideAssistant Side = "assistant"
)

// Valid reports whether s is a known turn side.
func (s Side) Valid() bool {
	return s == SideUser || s == SideAssistant
}

// Turn is one message in a transcript, normalized regardless of how the
// store shapes its rows. Turns are append-only: a retry adds a new assistant
// turn rather than editing an existing one.
type Turn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Side      Side      `json:"side"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}
