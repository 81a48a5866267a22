package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/internal/engine"
	"github.com/jwebster45206/storypath/internal/services"
	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/session"
	"github.com/jwebster45206/storypath/pkg/story"
)

type savesFixture struct {
	handler   *SavesHandler
	storage   *storage.MockStorage
	sessions  *sessionstore.MockStore
	sessionID string
	char      *character.Character
}

func newSavesFixture(t *testing.T) *savesFixture {
	t.Helper()

	st := storage.NewMockStorage()
	if err := st.SeedNodes(context.Background(), story.SeedGraph()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	sessions := sessionstore.NewMockStore()
	eng := engine.New(st, services.NewMockGenerator(), testLogger())

	char := &character.Character{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "Maeve",
		Race:      "elf",
		Archetype: "rogue",
		CreatedAt: time.Now(),
	}
	if err := st.CreateCharacter(context.Background(), char); err != nil {
		t.Fatalf("create character failed: %v", err)
	}

	sessionID := uuid.NewString()
	cur := &session.Cursor{UserID: char.UserID, CharacterID: char.ID}
	cur.EnterStatic(story.StartNodeID)
	if err := sessions.Put(context.Background(), sessionID, cur); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	return &savesFixture{
		handler:   NewSavesHandler(eng, sessions, testLogger()),
		storage:   st,
		sessions:  sessions,
		sessionID: sessionID,
		char:      char,
	}
}

func (f *savesFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: f.sessionID})

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestSaveCreate(t *testing.T) {
	f := newSavesFixture(t)

	w := f.do(t, http.MethodPost, "/v1/saves", `{"save_name":"camp"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var sg save.SaveGame
	if err := json.NewDecoder(w.Body).Decode(&sg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if sg.Name != "camp" || sg.NodeID != story.StartNodeID || sg.CharacterID != f.char.ID {
		t.Errorf("unexpected save: %+v", sg)
	}
}

func TestSaveCreateRejectedInDynamicMode(t *testing.T) {
	f := newSavesFixture(t)

	cur, _ := f.sessions.Get(context.Background(), f.sessionID)
	cur.EnterDynamic("mid-beat", nil)
	if err := f.sessions.Put(context.Background(), f.sessionID, cur); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	w := f.do(t, http.MethodPost, "/v1/saves", `{"save_name":"nope"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestSaveCreateRequiresName(t *testing.T) {
	f := newSavesFixture(t)

	w := f.do(t, http.MethodPost, "/v1/saves", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSaveList(t *testing.T) {
	f := newSavesFixture(t)

	f.do(t, http.MethodPost, "/v1/saves", `{"save_name":"first"}`)
	f.do(t, http.MethodPost, "/v1/saves", `{"save_name":"second"}`)

	w := f.do(t, http.MethodGet, "/v1/saves", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var list []save.Summary
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d saves, want 2", len(list))
	}
	for _, s := range list {
		if s.CharacterName != "Maeve" {
			t.Errorf("character name = %q", s.CharacterName)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	f := newSavesFixture(t)

	w := f.do(t, http.MethodPost, "/v1/saves", `{"save_name":"camp"}`)
	var sg save.SaveGame
	if err := json.NewDecoder(w.Body).Decode(&sg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// Wander into dynamic mode before loading
	cur, _ := f.sessions.Get(context.Background(), f.sessionID)
	cur.EnterDynamic("lost in the weeds", nil)
	if err := f.sessions.Put(context.Background(), f.sessionID, cur); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	w = f.do(t, http.MethodPost, fmt.Sprintf("/v1/saves/%s/load", sg.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var view GameView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if view.Mode != "static" || view.NodeID != sg.NodeID {
		t.Errorf("view = %s/%s, want static/%s", view.Mode, view.NodeID, sg.NodeID)
	}

	restored, _ := f.sessions.Get(context.Background(), f.sessionID)
	if restored.NodeID != sg.NodeID || restored.CharacterID != sg.CharacterID {
		t.Errorf("cursor not restored: %+v", restored)
	}
	if restored.DynamicText != "" {
		t.Error("dynamic fields not cleared on load")
	}
}

func TestSaveLoadNotFound(t *testing.T) {
	f := newSavesFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/saves/%s/load", uuid.New()), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSaveDelete(t *testing.T) {
	f := newSavesFixture(t)

	w := f.do(t, http.MethodPost, "/v1/saves", `{"save_name":"camp"}`)
	var sg save.SaveGame
	if err := json.NewDecoder(w.Body).Decode(&sg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/v1/saves/%s", sg.ID), "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	got, _ := f.storage.GetSave(context.Background(), sg.ID)
	if got != nil {
		t.Error("save still present after delete")
	}
}

func TestSaveDeleteForeignSaveForbidden(t *testing.T) {
	f := newSavesFixture(t)

	// A save owned by another user's character
	other := &character.Character{
		ID: uuid.New(), UserID: uuid.New(),
		Name: "Borin", Race: "dwarf", Archetype: "warrior", CreatedAt: time.Now(),
	}
	if err := f.storage.CreateCharacter(context.Background(), other); err != nil {
		t.Fatalf("create character failed: %v", err)
	}
	foreign := &save.SaveGame{
		ID: uuid.New(), CharacterID: other.ID,
		NodeID: story.StartNodeID, Name: "theirs", CreatedAt: time.Now(),
	}
	if err := f.storage.CreateSave(context.Background(), foreign); err != nil {
		t.Fatalf("create save failed: %v", err)
	}

	w := f.do(t, http.MethodDelete, fmt.Sprintf("/v1/saves/%s", foreign.ID), "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	got, _ := f.storage.GetSave(context.Background(), foreign.ID)
	if got == nil {
		t.Error("foreign save was deleted")
	}
}

// Loading does not check ownership, only deletion does.
func TestSaveLoadForeignSaveAllowed(t *testing.T) {
	f := newSavesFixture(t)

	other := &character.Character{
		ID: uuid.New(), UserID: uuid.New(),
		Name: "Borin", Race: "dwarf", Archetype: "warrior", CreatedAt: time.Now(),
	}
	if err := f.storage.CreateCharacter(context.Background(), other); err != nil {
		t.Fatalf("create character failed: %v", err)
	}
	foreign := &save.SaveGame{
		ID: uuid.New(), CharacterID: other.ID,
		NodeID: story.StartNodeID, Name: "theirs", CreatedAt: time.Now(),
	}
	if err := f.storage.CreateSave(context.Background(), foreign); err != nil {
		t.Fatalf("create save failed: %v", err)
	}

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/saves/%s/load", foreign.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	cur, _ := f.sessions.Get(context.Background(), f.sessionID)
	if cur.CharacterID != other.ID {
		t.Error("cursor not rebound to the save's character")
	}
}

func TestSavesRequireLogin(t *testing.T) {
	f := newSavesFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/saves", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSaveInvalidID(t *testing.T) {
	f := newSavesFixture(t)

	w := f.do(t, http.MethodDelete, "/v1/saves/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
