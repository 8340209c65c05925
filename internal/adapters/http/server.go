// Package http exposes the assistant over a small JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/pkg/domain"
)

// Assistant is the conversation surface the transport exposes.
type Assistant interface {
	// Handle processes one user message and returns the session ID that
	// was used (minted when the given one is empty) plus the batch of
	// assistant replies.
	Handle(ctx context.Context, sessionID, message string) (string, []string, error)

	// History returns the session transcript, oldest first.
	History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// EndSession terminates the session's actor and deletes its transcript.
	EndSession(ctx context.Context, sessionID string) error
}

// Server wires the assistant to chi routes.
type Server struct {
	assistant Assistant
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer exposes the given metrics registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler builds the HTTP handler for the assistant.
func NewHandler(assistant Assistant, opts ...Option) http.Handler {
	s := &Server{
		assistant: assistant,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/chat", s.handleChat)
	r.Get("/sessions/{sessionID}/history", s.handleHistory)
	r.Delete("/sessions/{sessionID}", s.handleEndSession)

	return r
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string   `json:"session_id"`
	Replies   []string `json:"replies"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID, replies, err := s.assistant.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "session_id", req.SessionID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	if replies == nil {
		replies = []string{}
	}
	s.writeJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Replies: replies})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	history, err := s.assistant.History(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("history lookup failed", "session_id", sessionID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []domain.ChatMessage{}
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.assistant.EndSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("session termination failed", "session_id", sessionID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
