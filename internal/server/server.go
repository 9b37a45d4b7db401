// Package server exposes the history store and the conversation agent over
// HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/chatvault/chatvault/internal/agent"
	"github.com/chatvault/chatvault/internal/history"
	"github.com/chatvault/chatvault/internal/logger"
)

// Server wires HTTP routes to the history store and, when configured, the
// conversation agent.
type Server struct {
	store history.Store
	agent *agent.Agent
}

// New creates a Server. agent may be nil when no LLM is configured; the chat
// endpoint then responds 503.
func New(store history.Store, ag *agent.Agent) *Server {
	return &Server{store: store, agent: ag}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/sessions/{sessionID}/messages", s.handleAppendMessage)
		api.Get("/sessions/{sessionID}/messages", s.handleListMessages)
		api.Delete("/sessions/{sessionID}/messages", s.handleClearSession)
		api.Get("/sessions/{sessionID}/search", s.handleSearchMessages)
		api.Post("/chat", s.handleChat)
	})
	return r
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Role     string            `json:"role"`
		Content  string            `json:"content"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch payload.Role {
	case history.RoleHuman, history.RoleAI, history.RoleSystem:
	default:
		respondError(w, http.StatusBadRequest, "role must be human, ai or system")
		return
	}
	if payload.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg := history.NewMessage(sessionID, payload.Role, payload.Content)
	msg.Metadata = payload.Metadata
	if err := s.store.AddMessage(r.Context(), msg); err != nil {
		logger.L.Error("append message failed", "session", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store message")
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	msgs, err := s.store.Messages(r.Context(), sessionID)
	if err != nil {
		logger.L.Error("list messages failed", "session", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read messages")
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.store.Clear(r.Context(), sessionID); err != nil {
		logger.L.Error("clear session failed", "session", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	msgs, err := s.store.Search(r.Context(), sessionID, query)
	if errors.Is(err, history.ErrSearchUnsupported) {
		respondError(w, http.StatusNotImplemented, "search not supported by the configured backend")
		return
	}
	if err != nil {
		logger.L.Error("search failed", "session", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		respondError(w, http.StatusServiceUnavailable, "no LLM configured")
		return
	}

	var payload struct {
		SessionID string `json:"session_id"`
		Input     string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Input == "" {
		respondError(w, http.StatusBadRequest, "input is required")
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	reply, err := s.agent.Process(r.Context(), payload.SessionID, payload.Input)
	if err != nil {
		logger.L.Error("chat failed", "session", payload.SessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to process request")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"session_id": payload.SessionID,
		"reply":      reply,
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("encode response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
