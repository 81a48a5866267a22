package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/pkg/session"
)

// SessionCookieName is the cookie carrying the opaque session id. The
// cursor itself lives server-side in the session store.
const SessionCookieName = "session_id"

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, ErrorResponse{Error: msg})
}

// ensureSession returns the request's session id, minting a new one and
// setting the cookie if the request carries none.
func ensureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// loadCursor fetches the session's cursor, or a fresh anonymous cursor when
// none is stored yet.
func loadCursor(ctx context.Context, store sessionstore.Store, sessionID string) (*session.Cursor, error) {
	cur, err := store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = &session.Cursor{}
	}
	return cur, nil
}
