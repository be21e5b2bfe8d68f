// Package server exposes the journal and assistant over a small JSON API.
// It owns input validation: unknown authors and empty questions are rejected
// here, before the pipeline runs.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pairjournal/internal/assistant"
	"pairjournal/internal/journal"
	"pairjournal/internal/store"
)

// Server handles the HTTP API.
type Server struct {
	store     *store.Store
	assistant *assistant.Assistant
	logger    *zap.Logger
	http      *http.Server
}

// New builds the server with its routes mounted.
func New(addr string, st *store.Store, as *assistant.Assistant, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: st, assistant: as, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the route handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type askRequest struct {
	Question string         `json:"question"`
	Asker    string         `json:"asker"`
	Turns    []journal.Turn `json:"turns"`
}

type askResponse struct {
	Answer  string `json:"answer,omitempty"`
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	asker, err := journal.ParseAuthor(req.Asker)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Keep only the most recent turns.
	turns := req.Turns
	if len(turns) > assistant.MaxTurns {
		turns = turns[len(turns)-assistant.MaxTurns:]
	}

	outcome := s.assistant.Ask(r.Context(), assistant.Request{
		Question: req.Question,
		Asker:    asker,
		Turns:    turns,
	})

	resp := askResponse{}
	switch outcome.Kind {
	case assistant.OutcomeAnswered:
		resp.Answer = outcome.Text
	case assistant.OutcomePartial:
		resp.Answer = outcome.Text
		resp.Partial = true
	case assistant.OutcomeBlocked:
		resp.Error = "answer blocked: " + outcome.Reason
	default:
		s.logger.Error("assistant request failed", zap.Error(outcome.Err))
		resp.Error = "assistant unavailable"
	}
	writeJSON(w, outcome.HTTPStatus(), resp)
}

type createEntryRequest struct {
	Author string `json:"author"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	author, err := journal.ParseAuthor(req.Author)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	date := req.Date
	if date == "" {
		date = time.Now().Format(journal.DateLayout)
	} else if date, err = journal.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := &journal.Entry{Author: author, Date: date, Text: req.Text}
	if err := s.store.Save(r.Context(), entry); err != nil {
		s.logger.Error("failed to save entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	author, err := journal.ParseAuthor(r.URL.Query().Get("author"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.ListByAuthor(r.Context(), author, 100)
	if err != nil {
		s.logger.Error("failed to list entries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.logger.Error("failed to delete entry", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
