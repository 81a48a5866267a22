package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/storypath/pkg/story"
)

// State is the derived lifecycle state of a session cursor.
type State string

const (
	StateAnonymous   State = "anonymous"    // no user bound
	StateNoCharacter State = "no_character" // logged in, no character yet
	StateStatic      State = "static"       // on a node of the story graph
	StateDynamic     State = "dynamic"      // in generated-story mode
)

// Cursor is the per-session pointer tracking which node or mode a player
// currently occupies. The dynamic fields are present if and only if
// NodeID is the dynamic sentinel; all mutations go through the Enter/Clear
// methods to keep that invariant.
type Cursor struct {
	UserID         uuid.UUID      `json:"user_id,omitempty"`
	CharacterID    uuid.UUID      `json:"character_id,omitempty"`
	NodeID         string         `json:"current_node_id,omitempty"`
	DynamicText    string         `json:"dynamic_story_text,omitempty"`
	DynamicChoices []story.Choice `json:"dynamic_choices,omitempty"`
}

// State derives the lifecycle state from the cursor fields.
func (c *Cursor) State() State {
	switch {
	case c.UserID == uuid.Nil:
		return StateAnonymous
	case c.CharacterID == uuid.Nil || c.NodeID == "":
		return StateNoCharacter
	case c.NodeID == story.DynamicNodeID:
		return StateDynamic
	default:
		return StateStatic
	}
}

// EnterStatic moves the cursor to a node of the static graph, clearing any
// dynamic fields.
func (c *Cursor) EnterStatic(nodeID string) {
	c.NodeID = nodeID
	c.DynamicText = ""
	c.DynamicChoices = nil
}

// EnterDynamic moves the cursor into dynamic mode with freshly generated
// story text and choices.
func (c *Cursor) EnterDynamic(text string, choices []story.Choice) {
	c.NodeID = story.DynamicNodeID
	c.DynamicText = text
	c.DynamicChoices = choices
}

// Reset discards all cursor fields, returning the session to anonymous.
func (c *Cursor) Reset() {
	*c = Cursor{}
}

// Validate reports a violated invariant: dynamic fields may be set only
// while the cursor points at the dynamic sentinel.
func (c *Cursor) Validate() error {
	dynamic := c.NodeID == story.DynamicNodeID
	if !dynamic && (c.DynamicText != "" || len(c.DynamicChoices) > 0) {
		return fmt.Errorf("dynamic fields set while on static node %q", c.NodeID)
	}
	return nil
}

// DynamicChoice returns the dynamic choice with the given id, or nil.
func (c *Cursor) DynamicChoice(id string) *story.Choice {
	for i := range c.DynamicChoices {
		if c.DynamicChoices[i].ID == id {
			return &c.DynamicChoices[i]
		}
	}
	return nil
}
