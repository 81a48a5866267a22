package save

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveGame is a named snapshot of a cursor's static position. Dynamic
// states are never persisted.
type SaveGame struct {
	ID          uuid.UUID `json:"id"`
	CharacterID uuid.UUID `json:"character_id"`
	NodeID      string    `json:"current_node_id"`
	Name        string    `json:"save_name"`
	CreatedAt   time.Time `json:"timestamp"`
}

// Summary is a save joined with its character and a snippet of the node
// text, for listing screens.
type Summary struct {
	SaveGame
	CharacterName string `json:"character_name"`
	NodeSnippet   string `json:"node_snippet"`
}

// Request is the body of a save-game request.
type Request struct {
	Name string `json:"save_name"`
}

func (r *Request) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("save_name cannot be empty")
	}
	return nil
}
