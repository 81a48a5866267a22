package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/session"
	"github.com/jwebster45206/storypath/pkg/story"
)

// CharacterResponse is a character together with its derived sheet.
type CharacterResponse struct {
	*character.Character
	Sheet       character.Sheet `json:"sheet"`
	Description string          `json:"description"`
}

// CharacterHandler handles character creation and retrieval for the
// session's bound character.
type CharacterHandler struct {
	storage  storage.Storage
	sessions sessionstore.Store
	logger   *slog.Logger
}

func NewCharacterHandler(st storage.Storage, sessions sessionstore.Store, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{
		storage:  st,
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for the session character
// Routes:
// POST /v1/character - Create a character and bind it to the session
// GET  /v1/character - Read the session's bound character
func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r, sessionID, cur)
	case http.MethodGet:
		h.handleRead(w, r, cur)
	default:
		writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
	}
}

func (h *CharacterHandler) handleCreate(w http.ResponseWriter, r *http.Request, sessionID string, cur *session.Cursor) {
	var req struct {
		Name      string `json:"name"`
		Race      string `json:"race"`
		Archetype string `json:"archetype"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := &character.Character{
		ID:        uuid.New(),
		UserID:    cur.UserID,
		Name:      req.Name,
		Race:      req.Race,
		Archetype: req.Archetype,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.CreateCharacter(r.Context(), c); err != nil {
		h.logger.Error("Failed to create character", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Binding a character drops the player onto the start of the story.
	cur.CharacterID = c.ID
	cur.EnterStatic(story.StartNodeID)
	if err := h.sessions.Put(r.Context(), sessionID, cur); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("Character created", "character_id", c.ID, "user_id", c.UserID, "name", c.Name)
	writeJSON(h.logger, w, http.StatusCreated, CharacterResponse{
		Character:   c,
		Sheet:       c.Sheet(),
		Description: c.Describe(),
	})
}

func (h *CharacterHandler) handleRead(w http.ResponseWriter, r *http.Request, cur *session.Cursor) {
	if cur.CharacterID == uuid.Nil {
		writeError(h.logger, w, http.StatusNotFound, "No character bound to this session")
		return
	}

	c, err := h.storage.GetCharacter(r.Context(), cur.CharacterID)
	if err != nil {
		h.logger.Error("Failed to load character", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if c == nil {
		writeError(h.logger, w, http.StatusNotFound, "Character not found")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, CharacterResponse{
		Character:   c,
		Sheet:       c.Sheet(),
		Description: c.Describe(),
	})
}
