// Package httpapi exposes the chat backend over HTTP and WebSocket.
//
// REST endpoints cover accounts, chats and document upload; the
// WebSocket endpoint carries live conversation turns. All chat routes
// require a Bearer token issued by the login endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driving"
	"github.com/custodia-labs/lexchat/internal/logger"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address (default: :8080).
	Addr string
}

// Server is the HTTP transport over the driving services.
type Server struct {
	httpServer *http.Server
	users      driving.UserService
	chats      driving.ChatService
	knowledge  driving.KnowledgeService
}

// NewServer wires the driving services into an HTTP server.
func NewServer(cfg Config, users driving.UserService, chats driving.ChatService, knowledge driving.KnowledgeService) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		users:     users,
		chats:     chats,
		knowledge: knowledge,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.Handle("GET /api/v1/chats", s.requireAuth(s.handleListChats))
	mux.Handle("POST /api/v1/chats", s.requireAuth(s.handleCreateChat))
	mux.Handle("GET /api/v1/chats/{chatID}/messages", s.requireAuth(s.handleListMessages))
	mux.Handle("POST /api/v1/knowledge/upload", s.requireAuth(s.handleUpload))
	mux.HandleFunc("GET /ws/{chatID}", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response: %v", err)
	}
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAuthInvalid):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger.Warn("request failed: %v", err)
		// Internal details stay out of the response body.
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
