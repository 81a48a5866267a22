package character

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Character is a player character bound to a user. Immutable after creation;
// a session binds to exactly one character at a time.
type Character struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Race      string    `json:"race"`
	Archetype string    `json:"archetype"`
	CreatedAt time.Time `json:"created_at"`
}

// Races and Archetypes are the options offered at character creation.
// Stored lowercase; use Title for display.
var (
	Races      = []string{"human", "elf", "dwarf", "orc"}
	Archetypes = []string{"warrior", "mage", "rogue", "ranger"}
)

// AttributeNames fixes the display and prompt order of sheet attributes.
var AttributeNames = []string{"strength", "dexterity", "intelligence", "wits"}

// Sheet is the archetype-derived stat block used for prompts and display.
type Sheet struct {
	HP         int            `json:"hp"`
	AC         int            `json:"ac"`
	Attributes map[string]int `json:"attributes"`
}

// archetypeSheets maps each archetype to its fixed starting sheet.
var archetypeSheets = map[string]Sheet{
	"warrior": {HP: 14, AC: 16, Attributes: map[string]int{"strength": 16, "dexterity": 11, "intelligence": 9, "wits": 10}},
	"mage":    {HP: 8, AC: 11, Attributes: map[string]int{"strength": 8, "dexterity": 12, "intelligence": 17, "wits": 13}},
	"rogue":   {HP: 10, AC: 14, Attributes: map[string]int{"strength": 10, "dexterity": 17, "intelligence": 12, "wits": 14}},
	"ranger":  {HP: 12, AC: 14, Attributes: map[string]int{"strength": 12, "dexterity": 15, "intelligence": 11, "wits": 15}},
}

var titleCaser = cases.Title(language.English)

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// Validate checks required fields and option membership.
func (c *Character) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !contains(Races, c.Race) {
		return fmt.Errorf("unknown race: %s", c.Race)
	}
	if !contains(Archetypes, c.Archetype) {
		return fmt.Errorf("unknown archetype: %s", c.Archetype)
	}
	return nil
}

// Sheet returns the stat block for the character's archetype.
func (c *Character) Sheet() Sheet {
	return archetypeSheets[c.Archetype]
}

// Actor builds the runtime d20 actor backing the character sheet.
func (c *Character) Actor() (*d20.Actor, error) {
	sheet, ok := archetypeSheets[c.Archetype]
	if !ok {
		return nil, fmt.Errorf("unknown archetype: %s", c.Archetype)
	}
	actor, err := d20.NewActor(c.Name).
		WithHP(sheet.HP).
		WithAC(sheet.AC).
		WithAttributes(sheet.Attributes).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	return actor, nil
}

// DisplayRace returns the race formatted for display, e.g. "Elf".
func (c *Character) DisplayRace() string {
	return titleCaser.String(c.Race)
}

// DisplayArchetype returns the archetype formatted for display, e.g. "Rogue".
func (c *Character) DisplayArchetype() string {
	return titleCaser.String(c.Archetype)
}

// Describe returns a one-line description for prompts and UI,
// e.g. "Maeve, an Elf Rogue".
func (c *Character) Describe() string {
	race := c.DisplayRace()
	article := "a"
	switch c.Race {
	case "elf", "orc":
		article = "an"
	}
	return fmt.Sprintf("%s, %s %s %s", c.Name, article, race, c.DisplayArchetype())
}
