package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avdeev/chatrelay/internal/chat"
	"github.com/avdeev/chatrelay/internal/gateway"
	"github.com/avdeev/chatrelay/internal/store"
	"github.com/coder/websocket"
)

// WebSocketHandler serves a frame-per-turn chat channel. Each inbound frame
// is one user action (message or retry) and produces exactly one outbound
// frame; the persistence semantics are the same as the POST endpoints.
type WebSocketHandler struct {
	svc *chat.Service
}

// NewWebSocketHandler creates a new WebSocket chat handler.
func NewWebSocketHandler(svc *chat.Service) *WebSocketHandler {
	return &WebSocketHandler{svc: svc}
}

// wsMessage represents WebSocket message structure, both directions.
type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter required", http.StatusBadRequest)
		return
	}
	slog.Info("WebSocket chat connection", "session_id", sessionID, "ip", r.RemoteAddr)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	ctx := r.Context()
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			// Normal closure and client disconnects both land here.
			slog.Debug("WebSocket read ended", "session_id", sessionID, "error", err)
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.writeJSON(ctx, ws, wsMessage{Type: "error", Content: "malformed frame"})
			continue
		}

		h.handleFrame(ctx, ws, sessionID, msg)
	}
}

func (h *WebSocketHandler) handleFrame(ctx context.Context, ws *websocket.Conn, sessionID string, msg wsMessage) {
	if msg.Content == "" {
		h.writeJSON(ctx, ws, wsMessage{Type: "error", Content: "content is required"})
		return
	}

	var reply string
	var err error
	switch msg.Type {
	case "message":
		t, sendErr := h.svc.Send(ctx, sessionID, msg.Content)
		reply, err = t.Text, sendErr
	case "retry":
		t, retryErr := h.svc.Retry(ctx, sessionID, msg.Content)
		reply, err = t.Text, retryErr
	default:
		h.writeJSON(ctx, ws, wsMessage{Type: "error", Content: "unknown frame type"})
		return
	}

	if err != nil {
		var gwErr *gateway.Error
		switch {
		case errors.As(err, &gwErr):
			h.writeJSON(ctx, ws, wsMessage{Type: "error", Content: "assistant is unavailable, try again"})
		case errors.Is(err, store.ErrConstraint):
			h.writeJSON(ctx, ws, wsMessage{Type: "error", Content: "unknown session"})
		default:
			h.writeJSON(ctx, ws, wsMessage{Type: "error", Content: "internal error"})
		}
		return
	}

	h.writeJSON(ctx, ws, wsMessage{Type: "reply", Content: reply})
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal websocket frame", "error", err)
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "error", err)
	}
}
