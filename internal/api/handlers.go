package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kancelariai/stefan/internal/assistant"
	"github.com/kancelariai/stefan/internal/gemini"
	"github.com/kancelariai/stefan/internal/notes"
	"github.com/kancelariai/stefan/internal/syncqueue"
)

type chatRequest struct {
	Message string                  `json:"message"`
	History []assistant.ChatMessage `json:"history"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.Message, req.History)
	if err != nil {
		if errors.Is(err, gemini.ErrCancelled) {
			// The client is gone; nothing to write and nothing to log as an
			// error.
			s.logger.Debug("chat request cancelled by client")
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type analyzeRequest struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

type analyzeResponse struct {
	Success  bool     `json:"success"`
	Analysis string   `json:"analysis"`
	Sources  []string `json:"sources"`
	Model    string   `json:"model"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := s.assistant.AnalyzeDocument(r.Context(), req.Content, req.Filename)
	if err != nil {
		if errors.Is(err, gemini.ErrCancelled) {
			s.logger.Debug("analysis request cancelled by client")
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sources := reply.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:  reply.Success,
		Analysis: reply.Message,
		Sources:  sources,
		Model:    reply.Model,
	})
}

type archiveRequest struct {
	Messages []assistant.ChatMessage `json:"messages"`
}

type archiveResponse struct {
	Success  bool                    `json:"success"`
	Archive  assistant.Archive       `json:"archive"`
	Archived int                     `json:"archived"`
	Kept     int                     `json:"kept"`
	Recent   []assistant.ChatMessage `json:"recent"`
}

// chatArchive splits off messages past the retention threshold and returns
// them as a versioned export alongside the messages worth keeping.
func (s *Server) chatArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := assistant.ValidateHistory(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	now := time.Now().UTC()
	old, recent := assistant.SplitOld(req.Messages, now)
	writeJSON(w, http.StatusOK, archiveResponse{
		Success:  true,
		Archive:  assistant.BuildArchive(old, now),
		Archived: len(old),
		Kept:     len(recent),
		Recent:   recent,
	})
}

// notePayload is the note body carried by a pending sync action.
type notePayload struct {
	ID      uuid.UUID `json:"id"`
	Owner   string    `json:"owner"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
}

// notesSync applies one queued note mutation. A success envelope is the
// drain worker's confirmation to remove the action from the queue, so it is
// only written after the store acknowledged the write.
func (s *Server) notesSync(w http.ResponseWriter, r *http.Request) {
	var action syncqueue.PendingAction
	if err := decodeBody(w, r, &action); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var payload notePayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.ID == uuid.Nil {
		writeError(w, http.StatusBadRequest, errors.New("note id is required"))
		return
	}

	var err error
	switch action.Type {
	case syncqueue.ActionNoteCreate, syncqueue.ActionNoteUpdate:
		err = s.notes.Upsert(r.Context(), notes.Note{
			ID:      payload.ID,
			Owner:   payload.Owner,
			Title:   payload.Title,
			Content: payload.Content,
		})
	case syncqueue.ActionNoteDelete:
		err = s.notes.Delete(r.Context(), payload.ID)
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown sync action type"))
		return
	}
	if err != nil {
		s.logger.Error("note sync failed", "action", action.Type, "note", payload.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "note sync failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) notesList(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	listed, err := s.notes.List(r.Context(), owner)
	if err != nil {
		s.logger.Error("notes list failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to list notes"))
		return
	}
	if listed == nil {
		listed = []notes.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": listed})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
