package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pjohansson/windy-city-politics/internal/session"
	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

// CreateSessionRequest starts a new play session for a catalog story.
type CreateSessionRequest struct {
	Story string `json:"story"`
}

// ChoiceRequest selects one of the currently offered choices by its
// zero-based index.
type ChoiceRequest struct {
	Choice int `json:"choice"`
}

// SessionsHandler serves the /v1/sessions routes.
type SessionsHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewSessionsHandler(sessions *session.Manager, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case len(parts) == 2 && parts[1] == "choice" && r.Method == http.MethodPost:
		h.handleChoice(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Story == "" {
		writeError(w, http.StatusBadRequest, "story is required")
		return
	}

	record, err := h.sessions.Create(r.Context(), req.Story)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "Story not found")
			return
		}
		if isParseError(err) {
			h.logger.Warn("Story failed to parse", "story", req.Story, "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("Failed to create session", "story", req.Story, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("Session created", "uuid", record.ID, "story", record.Story)
	writeJSON(w, http.StatusCreated, record)
}

func (h *SessionsHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	record, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Failed to load session", "uuid", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *SessionsHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.sessions.Choose(r.Context(), id, req.Choice)
	if err != nil {
		var invalid *ink.InvalidChoiceError
		switch {
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, session.ErrFinished):
			writeError(w, http.StatusConflict, "Session is finished")
		case errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, invalid.Error())
		case errors.Is(err, ink.ErrNotAwaitingChoice):
			writeError(w, http.StatusConflict, "Session is not awaiting a choice")
		default:
			h.logger.Error("Failed to apply choice", "uuid", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to apply choice")
		}
		return
	}

	h.logger.Info("Choice taken", "uuid", id, "choice", req.Choice, "finished", record.Finished)
	writeJSON(w, http.StatusOK, record)
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "uuid", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// isParseError reports whether err came from the story parser rather than
// the infrastructure around it.
func isParseError(err error) bool {
	var knotErr *ink.KnotError
	var lineErr *ink.LineError
	return errors.As(err, &knotErr) || errors.As(err, &lineErr) ||
		errors.Is(err, ink.ErrEmptyDocument)
}
