package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/session"
	"github.com/jwebster45206/storypath/pkg/story"
	"github.com/jwebster45206/storypath/pkg/user"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	storage  storage.Storage
	sessions sessionstore.Store
	logger   *slog.Logger
}

func NewAuthHandler(st storage.Storage, sessions sessionstore.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		storage:  st,
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for authentication
// Routes:
// POST /v1/auth/signup - Create a new account
// POST /v1/auth/login  - Authenticate and bind the session
// POST /v1/auth/logout - Discard the session cursor
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	switch r.URL.Path {
	case "/v1/auth/signup":
		h.handleSignup(w, r)
	case "/v1/auth/login":
		h.handleLogin(w, r)
	case "/v1/auth/logout":
		h.handleLogout(w, r)
	default:
		writeError(h.logger, w, http.StatusNotFound, "Not found")
	}
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := creds.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	u := &user.User{
		ID:           uuid.New(),
		Username:     creds.Username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.storage.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			writeError(h.logger, w, http.StatusConflict, "Username is already taken")
			return
		}
		h.logger.Error("Failed to create user", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("User created", "user_id", u.ID, "username", u.Username)
	writeJSON(h.logger, w, http.StatusCreated, u)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := creds.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.storage.GetUserByUsername(r.Context(), creds.Username)
	if err != nil {
		h.logger.Error("Failed to look up user", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		writeError(h.logger, w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// Logging back in on the same session keeps the bound character and
	// static position. Dynamic beats are ephemeral and reset to the start
	// node; a cursor left by a different user is discarded.
	sessionID := ensureSession(w, r)
	stored, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to read session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	cur := &session.Cursor{UserID: u.ID}
	if stored != nil && stored.UserID == u.ID && stored.CharacterID != uuid.Nil {
		cur.CharacterID = stored.CharacterID
		if stored.State() == session.StateStatic {
			cur.EnterStatic(stored.NodeID)
		} else {
			cur.EnterStatic(story.StartNodeID)
		}
	}
	if err := h.sessions.Put(r.Context(), sessionID, cur); err != nil {
		h.logger.Error("Failed to store session", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("User logged in", "user_id", u.ID, "username", u.Username)
	writeJSON(h.logger, w, http.StatusOK, u)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err == nil && c.Value != "" {
		if err := h.sessions.Delete(r.Context(), c.Value); err != nil {
			h.logger.Error("Failed to delete session", "error", err)
			writeError(h.logger, w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
