package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/story"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameView mirrors the API's story view payload.
type GameView struct {
	Mode      string         `json:"mode"`
	NodeID    string         `json:"node_id"`
	StoryText string         `json:"story_text"`
	Choices   []story.Choice `json:"choices"`
}

// CharacterView mirrors the API's character payload.
type CharacterView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Race        string    `json:"race"`
	Archetype   string    `json:"archetype"`
	Description string    `json:"description"`
	Sheet       struct {
		HP int `json:"hp"`
		AC int `json:"ac"`
	} `json:"sheet"`
}

// APIClient wraps calls to the StoryPath API. The http.Client carries a
// cookie jar, so the session cookie set at login rides along automatically.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: baseURL, client: client}
}

func (a *APIClient) testConnection() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// post sends a JSON body and decodes the response into out (if non-nil).
func (a *APIClient) post(path string, reqBody interface{}, wantStatus int, out interface{}) error {
	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := a.client.Post(a.baseURL+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func (a *APIClient) get(path string, out interface{}) error {
	resp, err := a.client.Get(a.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	return json.Unmarshal(body, out)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *APIClient) Signup(username, password string) error {
	return a.post("/v1/auth/signup", credentials{username, password}, http.StatusCreated, nil)
}

func (a *APIClient) Login(username, password string) error {
	return a.post("/v1/auth/login", credentials{username, password}, http.StatusOK, nil)
}

func (a *APIClient) CreateCharacter(name, race, archetype string) (*CharacterView, error) {
	req := map[string]string{"name": name, "race": race, "archetype": archetype}
	var cv CharacterView
	if err := a.post("/v1/character", req, http.StatusCreated, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

func (a *APIClient) GetView() (*GameView, error) {
	var view GameView
	if err := a.get("/v1/game", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (a *APIClient) Choose(choiceID string) (*GameView, error) {
	var view GameView
	req := map[string]string{"choice_id": choiceID}
	if err := a.post("/v1/game/choice", req, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Roll requests a dynamic beat. choiceID is empty for the first roll from a
// static node, and names a dynamic choice when continuing.
func (a *APIClient) Roll(choiceID string) (*GameView, error) {
	var view GameView
	req := map[string]string{"choice_id": choiceID}
	if err := a.post("/v1/game/roll", req, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (a *APIClient) ReturnToStory() (*GameView, error) {
	var view GameView
	if err := a.post("/v1/game/return", struct{}{}, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (a *APIClient) SaveGame(name string) (*save.SaveGame, error) {
	var sg save.SaveGame
	req := map[string]string{"save_name": name}
	if err := a.post("/v1/saves", req, http.StatusCreated, &sg); err != nil {
		return nil, err
	}
	return &sg, nil
}

func (a *APIClient) ListSaves() ([]save.Summary, error) {
	var list []save.Summary
	if err := a.get("/v1/saves", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (a *APIClient) LoadSave(id uuid.UUID) (*GameView, error) {
	var view GameView
	if err := a.post(fmt.Sprintf("/v1/saves/%s/load", id), struct{}{}, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (a *APIClient) DeleteSave(id uuid.UUID) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/saves/%s", a.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	return nil
}
