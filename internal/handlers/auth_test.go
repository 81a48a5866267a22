package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/session"
	"github.com/jwebster45206/storypath/pkg/story"
	"github.com/jwebster45206/storypath/pkg/user"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestUser(t *testing.T, st *storage.MockStorage, username, password string) *user.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return u
}

func TestSignup(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())

	body := bytes.NewBufferString(`{"username":"maeve","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp user.User
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Username != "maeve" {
		t.Errorf("username = %q", resp.Username)
	}
	if resp.PasswordHash != "" {
		t.Error("password hash must never be serialized")
	}

	stored, err := st.GetUserByUsername(context.Background(), "maeve")
	if err != nil || stored == nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2")) != nil {
		t.Error("stored hash does not match password")
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())
	createTestUser(t, st, "maeve", "hunter2")

	body := bytes.NewBufferString(`{"username":"maeve","password":"other"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"password":"x"}`},
		{"missing password", `{"username":"x"}`},
		{"malformed json", `{"username":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())
	u := createTestUser(t, st, "maeve", "hunter2")

	body := bytes.NewBufferString(`{"username":"maeve","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	// A session cookie is set and its cursor is bound to the user
	var sessionID string
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionID = c.Value
		}
	}
	if sessionID == "" {
		t.Fatal("no session cookie set")
	}

	cur, err := sessions.Get(context.Background(), sessionID)
	if err != nil || cur == nil {
		t.Fatalf("cursor not stored: %v", err)
	}
	if cur.UserID != u.ID {
		t.Errorf("cursor user = %s, want %s", cur.UserID, u.ID)
	}
	if cur.State() != session.StateNoCharacter {
		t.Errorf("cursor state = %q, want no_character", cur.State())
	}
}

func TestLoginKeepsBoundCursor(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())
	u := createTestUser(t, st, "maeve", "hunter2")

	sessionID := uuid.NewString()
	characterID := uuid.New()
	stored := &session.Cursor{UserID: u.ID, CharacterID: characterID}
	stored.EnterStatic("dark_forest")
	if err := sessions.Put(context.Background(), sessionID, stored); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	body := bytes.NewBufferString(`{"username":"maeve","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	cur, err := sessions.Get(context.Background(), sessionID)
	if err != nil || cur == nil {
		t.Fatalf("cursor not stored: %v", err)
	}
	if cur.CharacterID != characterID {
		t.Errorf("character = %s, want %s", cur.CharacterID, characterID)
	}
	if cur.NodeID != "dark_forest" {
		t.Errorf("node = %q, want dark_forest", cur.NodeID)
	}
}

func TestLoginResetsDynamicCursorToStart(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())
	u := createTestUser(t, st, "maeve", "hunter2")

	sessionID := uuid.NewString()
	characterID := uuid.New()
	stored := &session.Cursor{UserID: u.ID, CharacterID: characterID}
	stored.EnterDynamic("The mists part.", nil)
	if err := sessions.Put(context.Background(), sessionID, stored); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	body := bytes.NewBufferString(`{"username":"maeve","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	cur, err := sessions.Get(context.Background(), sessionID)
	if err != nil || cur == nil {
		t.Fatalf("cursor not stored: %v", err)
	}
	if cur.CharacterID != characterID {
		t.Errorf("character = %s, want %s", cur.CharacterID, characterID)
	}
	if cur.NodeID != story.StartNodeID {
		t.Errorf("node = %q, want %q", cur.NodeID, story.StartNodeID)
	}
	if cur.DynamicText != "" || cur.DynamicChoices != nil {
		t.Error("dynamic fields must be cleared on login")
	}
}

func TestLoginDiscardsOtherUsersCursor(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())
	u := createTestUser(t, st, "maeve", "hunter2")

	sessionID := uuid.NewString()
	stored := &session.Cursor{UserID: uuid.New(), CharacterID: uuid.New()}
	stored.EnterStatic("dark_forest")
	if err := sessions.Put(context.Background(), sessionID, stored); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	body := bytes.NewBufferString(`{"username":"maeve","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	cur, err := sessions.Get(context.Background(), sessionID)
	if err != nil || cur == nil {
		t.Fatalf("cursor not stored: %v", err)
	}
	if cur.UserID != u.ID {
		t.Errorf("user = %s, want %s", cur.UserID, u.ID)
	}
	if cur.CharacterID != uuid.Nil || cur.NodeID != "" {
		t.Errorf("another user's cursor must not carry over: %+v", cur)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())
	createTestUser(t, st, "maeve", "hunter2")

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username":"maeve","password":"wrong"}`},
		{"unknown user", `{"username":"nobody","password":"hunter2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())

	sessionID := uuid.NewString()
	cur := &session.Cursor{UserID: uuid.New()}
	if err := sessions.Put(context.Background(), sessionID, cur); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	got, err := sessions.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("cursor still present after logout")
	}
}

func TestAuthMethodNotAllowed(t *testing.T) {
	st := storage.NewMockStorage()
	sessions := sessionstore.NewMockStore()
	handler := NewAuthHandler(st, sessions, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/login", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
