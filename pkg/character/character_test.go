package character

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		char    Character
		wantErr bool
	}{
		{
			name: "valid character",
			char: Character{Name: "Maeve", Race: "elf", Archetype: "rogue"},
		},
		{
			name:    "empty name",
			char:    Character{Race: "elf", Archetype: "rogue"},
			wantErr: true,
		},
		{
			name:    "unknown race",
			char:    Character{Name: "Maeve", Race: "tiefling", Archetype: "rogue"},
			wantErr: true,
		},
		{
			name:    "unknown archetype",
			char:    Character{Name: "Maeve", Race: "elf", Archetype: "bard"},
			wantErr: true,
		},
		{
			name:    "display-cased input is rejected",
			char:    Character{Name: "Maeve", Race: "Elf", Archetype: "rogue"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.char.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestActor(t *testing.T) {
	c := Character{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "Brund",
		Race:      "dwarf",
		Archetype: "warrior",
	}

	actor, err := c.Actor()
	if err != nil {
		t.Fatalf("Actor() error: %v", err)
	}

	sheet := c.Sheet()
	if actor.MaxHP() != sheet.HP {
		t.Errorf("expected max HP %d, got %d", sheet.HP, actor.MaxHP())
	}
	if actor.AC() != sheet.AC {
		t.Errorf("expected AC %d, got %d", sheet.AC, actor.AC())
	}
	if str, ok := actor.Attribute("strength"); !ok || str != sheet.Attributes["strength"] {
		t.Errorf("expected strength %d, got %d (ok=%v)", sheet.Attributes["strength"], str, ok)
	}
}

func TestActorUnknownArchetype(t *testing.T) {
	c := Character{Name: "Nix", Race: "human", Archetype: "jester"}
	if _, err := c.Actor(); err == nil {
		t.Error("expected error for unknown archetype")
	}
}

func TestDescribe(t *testing.T) {
	c := Character{Name: "Maeve", Race: "elf", Archetype: "rogue"}
	if got, want := c.Describe(), "Maeve, an Elf Rogue"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
	if c.DisplayRace() != "Elf" {
		t.Errorf("DisplayRace() = %q, want %q", c.DisplayRace(), "Elf")
	}
	if c.DisplayArchetype() != "Rogue" {
		t.Errorf("DisplayArchetype() = %q, want %q", c.DisplayArchetype(), "Rogue")
	}
}
