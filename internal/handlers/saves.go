package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/internal/engine"
	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/session"
)

// SavesHandler handles save game creation, listing, loading and deletion.
type SavesHandler struct {
	engine   *engine.Engine
	sessions sessionstore.Store
	logger   *slog.Logger
}

func NewSavesHandler(eng *engine.Engine, sessions sessionstore.Store, logger *slog.Logger) *SavesHandler {
	return &SavesHandler{
		engine:   eng,
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for save games
// Routes:
// POST   /v1/saves           - Save the current position under a name
// GET    /v1/saves           - List the user's saves, newest first
// POST   /v1/saves/{id}/load - Restore a save onto the session
// DELETE /v1/saves/{id}     - Delete an owned save
func (h *SavesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)
	cur, err := loadCursor(r.Context(), h.sessions, sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if cur.State() == session.StateAnonymous {
		writeError(h.logger, w, http.StatusUnauthorized, "Login required")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/saves")
	switch {
	case path == "" || path == "/":
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r, cur)
		case http.MethodGet:
			h.handleList(w, r, cur)
		default:
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
		}

	case strings.HasSuffix(path, "/load") && r.Method == http.MethodPost:
		idStr := strings.Trim(strings.TrimSuffix(path, "/load"), "/")
		saveID, err := uuid.Parse(idStr)
		if err != nil {
			writeError(h.logger, w, http.StatusBadRequest, "Invalid save ID format")
			return
		}
		h.handleLoad(w, r, sessionID, cur, saveID)

	case r.Method == http.MethodDelete:
		saveID, err := uuid.Parse(strings.Trim(path, "/"))
		if err != nil {
			writeError(h.logger, w, http.StatusBadRequest, "Invalid save ID format")
			return
		}
		h.handleDelete(w, r, cur, saveID)

	default:
		writeError(h.logger, w, http.StatusNotFound, "Not found")
	}
}

func (h *SavesHandler) handleCreate(w http.ResponseWriter, r *http.Request, cur *session.Cursor) {
	var req save.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	sg, err := h.engine.SaveGame(r.Context(), cur, req.Name)
	if err != nil {
		if errors.Is(err, engine.ErrRejected) {
			writeError(h.logger, w, http.StatusConflict, "Cannot save in dynamic mode; return to the story first")
			return
		}
		h.logger.Error("Failed to save game", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(h.logger, w, http.StatusCreated, sg)
}

func (h *SavesHandler) handleList(w http.ResponseWriter, r *http.Request, cur *session.Cursor) {
	summaries, err := h.engine.ListSaves(r.Context(), cur.UserID)
	if err != nil {
		h.logger.Error("Failed to list saves", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, summaries)
}

func (h *SavesHandler) handleLoad(w http.ResponseWriter, r *http.Request, sessionID string, cur *session.Cursor, saveID uuid.UUID) {
	node, err := h.engine.LoadGame(r.Context(), cur, saveID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "Save not found")
			return
		}
		h.logger.Error("Failed to load game", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.sessions.Put(r.Context(), sessionID, cur); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, GameView{
		Mode:      "static",
		NodeID:    node.ID,
		StoryText: node.Text,
		Choices:   node.Choices,
	})
}

func (h *SavesHandler) handleDelete(w http.ResponseWriter, r *http.Request, cur *session.Cursor, saveID uuid.UUID) {
	if err := h.engine.DeleteSave(r.Context(), cur.UserID, saveID); err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			writeError(h.logger, w, http.StatusNotFound, "Save not found")
		case errors.Is(err, engine.ErrRejected):
			writeError(h.logger, w, http.StatusForbidden, "Save belongs to another user")
		default:
			h.logger.Error("Failed to delete save", "error", err)
			writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
