// Package api exposes the assistant over HTTP: chat, document analysis,
// the chat archive export and the notes sync endpoint the offline queue
// drains into.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kancelariai/stefan/internal/assistant"
	"github.com/kancelariai/stefan/internal/notes"
)

// maxRequestBody caps request bodies at 1MB to bound hostile payloads. The
// document budget is enforced separately by the assistant service.
const maxRequestBody = 1 << 20

// Assistant is the orchestration surface the handlers call.
type Assistant interface {
	Chat(ctx context.Context, message string, history []assistant.ChatMessage) (assistant.Reply, error)
	AnalyzeDocument(ctx context.Context, content, filename string) (assistant.Reply, error)
}

// NoteStore is the persistence surface for the notes endpoints.
type NoteStore interface {
	Upsert(ctx context.Context, note notes.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, owner string) ([]notes.Note, error)
}

type Server struct {
	router    *chi.Mux
	port      int
	assistant Assistant
	notes     NoteStore
	logger    *slog.Logger
}

func NewServer(port int, svc Assistant, noteStore NoteStore, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		assistant: svc,
		notes:     noteStore,
		logger:    logger,
	}

	router.Get("/health", s.health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Post("/chat", s.chat)
		r.Post("/chat/archive", s.chatArchive)
		r.Post("/analyze", s.analyze)
		r.Post("/notes/sync", s.notesSync)
		r.Get("/notes", s.notesList)
	})

	return s
}

// Handler exposes the router for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "stefan",
		"status":  "ready",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
