package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/storypath/pkg/character"
)

// choiceFormatInstructions tells the generator to close with the three
// marker lines the narrative parser expects. Keep in sync with
// pkg/narrative's markers.
const choiceFormatInstructions = `Continue the story in second person with one or two short paragraphs. ` +
	`Then present exactly three choices for the player, each on its own line, in this exact format:
Choice 1: <first option>
Choice 2: <second option>
Choice 3: <third option>`

// Builder constructs a generation prompt from character and story context
// using a fluent interface.
type Builder struct {
	char       *character.Character
	storyText  string
	chosenText string
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithCharacter sets the player character whose sheet is embedded in the
// prompt.
func (b *Builder) WithCharacter(c *character.Character) *Builder {
	b.char = c
	return b
}

// WithStoryText sets the current story context (static node text, or the
// previous dynamic story text when re-rolling).
func (b *Builder) WithStoryText(text string) *Builder {
	b.storyText = text
	return b
}

// WithChosenText sets the choice the player picked before rolling again,
// if any.
func (b *Builder) WithChosenText(text string) *Builder {
	b.chosenText = text
	return b
}

// Build constructs the final prompt string.
func (b *Builder) Build() (string, error) {
	if b.char == nil {
		return "", fmt.Errorf("character is required")
	}
	if b.storyText == "" {
		return "", fmt.Errorf("story text is required")
	}

	actor, err := b.char.Actor()
	if err != nil {
		return "", fmt.Errorf("failed to build character actor: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are the narrator of a branching fantasy adventure.\n\n")

	sb.WriteString(fmt.Sprintf("The player is %s (HP %d, AC %d).\n",
		b.char.Describe(), actor.MaxHP(), actor.AC()))

	attrs := make([]string, 0, len(character.AttributeNames))
	for _, name := range character.AttributeNames {
		if v, ok := actor.Attribute(name); ok {
			attrs = append(attrs, fmt.Sprintf("%s %d", name, v))
		}
	}
	if len(attrs) > 0 {
		sb.WriteString("Attributes: " + strings.Join(attrs, ", ") + ".\n")
	}
	sb.WriteString("\n")

	sb.WriteString("The story so far:\n")
	sb.WriteString(b.storyText)
	sb.WriteString("\n\n")

	if b.chosenText != "" {
		sb.WriteString(fmt.Sprintf("The player chose: %s\n\n", b.chosenText))
	}

	sb.WriteString(choiceFormatInstructions)
	return sb.String(), nil
}
