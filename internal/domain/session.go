// Package domain contains core domain types for the chatrelay application.
package domain

import (
	"time"
)

// Session is one continuous conversation. Sessions are created once and never
// deleted; only LastUpdated moves, whenever a turn is appended.
type Session struct {
	ID          string    `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// SessionSummary is a sidebar entry: a session plus a short preview of its
// first user message.
type SessionSummary struct {
	ID          string    `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	Preview     string    `json:"preview"`
}
