package narrative

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/storypath/pkg/story"
)

// choiceMarkers are the literal line prefixes the generator is instructed
// to emit. Matching is a case- and spacing-sensitive prefix match; the
// generator's own output is brittle and adding leniency here would only
// mask prompt regressions.
var choiceMarkers = []string{"Choice 1:", "Choice 2:", "Choice 3:"}

// Result is a parsed generation response: a narrative paragraph and up to
// three choices in marker order. Fewer than three recognized markers yields
// fewer choices; missing ones are never fabricated.
type Result struct {
	StoryText string
	Choices   []story.Choice
}

// Parse splits a raw generation response into story text and choices.
//
// The parser runs in two states. Before the first marker every non-blank
// line accumulates into the story text. After a marker line starts a
// choice, subsequent non-marker lines are space-joined onto the last open
// choice, which handles generators that wrap a choice across lines.
func Parse(raw string) Result {
	var storyLines []string
	var choiceTexts []string
	inChoices := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if rest, ok := matchMarker(line); ok {
			inChoices = true
			choiceTexts = append(choiceTexts, rest)
			continue
		}

		if inChoices {
			// Continuation of a wrapped choice line.
			last := len(choiceTexts) - 1
			if choiceTexts[last] == "" {
				choiceTexts[last] = line
			} else {
				choiceTexts[last] += " " + line
			}
			continue
		}

		storyLines = append(storyLines, line)
	}

	res := Result{
		StoryText: strings.TrimSpace(strings.Join(storyLines, "\n")),
	}
	for _, text := range choiceTexts {
		res.Choices = append(res.Choices, story.Choice{
			ID:         uuid.NewString(),
			NodeID:     story.DynamicNodeID,
			Text:       strings.TrimSpace(text),
			NextNodeID: story.DynamicNodeID,
		})
	}
	return res
}

// matchMarker reports whether the line begins with one of the choice
// markers and returns the trimmed remainder of the line.
func matchMarker(line string) (string, bool) {
	for _, marker := range choiceMarkers {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return "", false
}
