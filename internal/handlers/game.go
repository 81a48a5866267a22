package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/storypath/internal/engine"
	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/session"
	"github.com/jwebster45206/storypath/pkg/story"
)

// GameView is what the player sees: the current story text and the choices
// available from it, in either static or dynamic mode.
type GameView struct {
	Mode      string         `json:"mode"`
	NodeID    string         `json:"node_id"`
	StoryText string         `json:"story_text"`
	Choices   []story.Choice `json:"choices"`
}

// GameHandler handles story progression for the session cursor.
type GameHandler struct {
	engine   *engine.Engine
	storage  storage.Storage
	sessions sessionstore.Store
	logger   *slog.Logger
}

func NewGameHandler(eng *engine.Engine, st storage.Storage, sessions sessionstore.Store, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		engine:   eng,
		storage:  st,
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for game progression
// Routes:
// GET  /v1/game        - Current story view
// POST /v1/game/choice - Follow a static choice
// POST /v1/game/roll   - Roll the dice (generate a dynamic beat)
// POST /v1/game/return - Return from dynamic mode to the story's start
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)
	cur, err := loadCursor(r.Context(), h.sessions, sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch cur.State() {
	case session.StateAnonymous:
		writeError(h.logger, w, http.StatusUnauthorized, "Login required")
		return
	case session.StateNoCharacter:
		writeError(h.logger, w, http.StatusConflict, "Create a character first")
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/game":
		h.handleView(w, r, cur)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/game/choice":
		h.handleChoice(w, r, sessionID, cur)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/game/roll":
		h.handleRoll(w, r, sessionID, cur)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/game/return":
		h.handleReturn(w, r, sessionID, cur)
	default:
		writeError(h.logger, w, http.StatusNotFound, "Not found")
	}
}

// view builds the player-facing view of the cursor's current position.
func (h *GameHandler) view(ctx context.Context, cur *session.Cursor) (*GameView, error) {
	if cur.State() == session.StateDynamic {
		return &GameView{
			Mode:      "dynamic",
			NodeID:    story.DynamicNodeID,
			StoryText: cur.DynamicText,
			Choices:   cur.DynamicChoices,
		}, nil
	}

	node, err := h.engine.Node(ctx, cur.NodeID)
	if err != nil {
		return nil, err
	}
	return &GameView{
		Mode:      "static",
		NodeID:    node.ID,
		StoryText: node.Text,
		Choices:   node.Choices,
	}, nil
}

func (h *GameHandler) respondWithView(w http.ResponseWriter, r *http.Request, cur *session.Cursor) {
	view, err := h.view(r.Context(), cur)
	if err != nil {
		h.logger.Error("Failed to build game view", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, view)
}

func (h *GameHandler) handleView(w http.ResponseWriter, r *http.Request, cur *session.Cursor) {
	h.respondWithView(w, r, cur)
}

func (h *GameHandler) handleChoice(w http.ResponseWriter, r *http.Request, sessionID string, cur *session.Cursor) {
	var req struct {
		ChoiceID string `json:"choice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.engine.AdvanceStatic(r.Context(), cur, req.ChoiceID); err != nil {
		if errors.Is(err, engine.ErrRejected) {
			writeError(h.logger, w, http.StatusConflict, "Static choices are unavailable in dynamic mode")
			return
		}
		h.logger.Error("Failed to advance", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.sessions.Put(r.Context(), sessionID, cur); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.respondWithView(w, r, cur)
}

func (h *GameHandler) handleRoll(w http.ResponseWriter, r *http.Request, sessionID string, cur *session.Cursor) {
	var req struct {
		ChoiceID string `json:"choice_id"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	// In dynamic mode a choice id selects which generated option to
	// continue from.
	var chosenText string
	if req.ChoiceID != "" && cur.State() == session.StateDynamic {
		if c := cur.DynamicChoice(req.ChoiceID); c != nil {
			chosenText = c.Text
		}
	}

	char, err := h.storage.GetCharacter(r.Context(), cur.CharacterID)
	if err != nil {
		h.logger.Error("Failed to load character", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if char == nil {
		writeError(h.logger, w, http.StatusConflict, "Create a character first")
		return
	}

	if err := h.engine.RollDice(r.Context(), cur, char, chosenText); err != nil {
		if errors.Is(err, engine.ErrRejected) {
			writeError(h.logger, w, http.StatusConflict, "Cannot roll the dice right now")
			return
		}
		h.logger.Error("Failed to roll", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.sessions.Put(r.Context(), sessionID, cur); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.respondWithView(w, r, cur)
}

func (h *GameHandler) handleReturn(w http.ResponseWriter, r *http.Request, sessionID string, cur *session.Cursor) {
	if _, err := h.engine.ReturnToStatic(r.Context(), cur); err != nil {
		if errors.Is(err, engine.ErrRejected) {
			writeError(h.logger, w, http.StatusConflict, "Not in dynamic mode")
			return
		}
		h.logger.Error("Failed to return to story", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.sessions.Put(r.Context(), sessionID, cur); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.respondWithView(w, r, cur)
}
