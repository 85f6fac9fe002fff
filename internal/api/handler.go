// Package api provides HTTP handlers for the chatrelay API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avdeev/chatrelay/internal/chat"
	"github.com/avdeev/chatrelay/internal/gateway"
	"github.com/avdeev/chatrelay/internal/store"
	"github.com/go-chi/chi/v5"
)

// Handler serves the chat API on top of the chat service.
type Handler struct {
	svc *chat.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *chat.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes attaches the chat API routes to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Get("/", h.listSessions)
		r.Get("/{sessionID}/messages", h.getTranscript)
		r.Post("/{sessionID}/messages", h.sendMessage)
		r.Post("/{sessionID}/retry", h.retryMessage)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.NewSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, summaries)
}

func (h *Handler) getTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := h.svc.Transcript(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, turns)
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}

	turn, err := h.svc.Send(r.Context(), sessionID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, turn)
}

func (h *Handler) retryMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}

	turn, err := h.svc.Retry(r.Context(), sessionID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, turn)
}

// writeServiceError maps core errors to HTTP statuses. A gateway failure is
// the one recoverable class and surfaces as 502 so the front-end can offer a
// retry; a constraint violation from a message route means the caller named
// a session that does not exist.
func writeServiceError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &gwErr):
		Error(w, http.StatusBadGateway, "assistant is unavailable, try again")
	case errors.Is(err, store.ErrConstraint):
		Error(w, http.StatusNotFound, "unknown session")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
