package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/internal/services"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/narrative"
	"github.com/jwebster45206/storypath/pkg/prompts"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/session"
	"github.com/jwebster45206/storypath/pkg/story"
)

var (
	// ErrNotFound indicates the referenced node or save does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRejected indicates the operation is not allowed in the cursor's
	// current state or for the requesting user.
	ErrRejected = errors.New("rejected")
)

// degradedText is shown in place of generated narrative when the
// generation service fails. The player stays in dynamic mode with no
// choices and can return to the story.
const degradedText = "The dice clatter away into darkness, and fate stays silent. " +
	"Return to the story and try your luck again."

// Engine orchestrates cursor transitions across the story graph, the
// generation service and save games.
type Engine struct {
	storage storage.Storage
	gen     services.Generator
	logger  *slog.Logger
}

// New creates a progression engine.
func New(st storage.Storage, gen services.Generator, logger *slog.Logger) *Engine {
	return &Engine{
		storage: st,
		gen:     gen,
		logger:  logger,
	}
}

// Node loads a story node by id.
func (e *Engine) Node(ctx context.Context, id string) (*story.Node, error) {
	n, err := e.storage.GetNode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load node: %w", err)
	}
	if n == nil {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return n, nil
}

// AdvanceStatic follows a choice of the cursor's current node. An unknown
// choice id leaves the cursor unchanged and returns the current node, so
// stale form submissions do not break the session.
func (e *Engine) AdvanceStatic(ctx context.Context, cur *session.Cursor, choiceID string) (*story.Node, error) {
	if cur.State() != session.StateStatic {
		return nil, fmt.Errorf("cannot advance while %s: %w", cur.State(), ErrRejected)
	}

	current, err := e.Node(ctx, cur.NodeID)
	if err != nil {
		return nil, err
	}

	var chosen *story.Choice
	for i := range current.Choices {
		if current.Choices[i].ID == choiceID {
			chosen = &current.Choices[i]
			break
		}
	}
	if chosen == nil {
		e.logger.Warn("Unknown choice id, staying put", "node_id", cur.NodeID, "choice_id", choiceID)
		return current, nil
	}

	next, err := e.Node(ctx, chosen.NextNodeID)
	if err != nil {
		return nil, err
	}

	cur.EnterStatic(next.ID)
	return next, nil
}

// RollDice generates a dynamic story beat and installs it on the cursor.
// From a static node the node's text is the context; from dynamic mode the
// current dynamic text is, optionally extended with the chosen option.
// Generation failure degrades to a placeholder beat rather than an error.
func (e *Engine) RollDice(ctx context.Context, cur *session.Cursor, char *character.Character, chosenText string) error {
	var contextText string
	switch cur.State() {
	case session.StateStatic:
		node, err := e.Node(ctx, cur.NodeID)
		if err != nil {
			return err
		}
		contextText = node.Text
	case session.StateDynamic:
		contextText = cur.DynamicText
	default:
		return fmt.Errorf("cannot roll while %s: %w", cur.State(), ErrRejected)
	}

	builder := prompts.New().
		WithCharacter(char).
		WithStoryText(contextText)
	if chosenText != "" {
		builder = builder.WithChosenText(chosenText)
	}
	prompt, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("Generation failed, degrading", "error", err)
		cur.EnterDynamic(degradedText, nil)
		return nil
	}

	result := narrative.Parse(raw)
	if len(result.Choices) == 0 {
		e.logger.Warn("Generation produced no recognizable choices",
			"response_length", len(raw))
	}

	cur.EnterDynamic(result.StoryText, result.Choices)
	return nil
}

// ReturnToStatic hard-resets a dynamic session back to the start node.
func (e *Engine) ReturnToStatic(ctx context.Context, cur *session.Cursor) (*story.Node, error) {
	if cur.State() != session.StateDynamic {
		return nil, fmt.Errorf("cannot return while %s: %w", cur.State(), ErrRejected)
	}

	start, err := e.Node(ctx, story.StartNodeID)
	if err != nil {
		return nil, err
	}

	cur.EnterStatic(start.ID)
	return start, nil
}

// SaveGame snapshots the cursor's static position under a name. Dynamic
// states are unsaveable.
func (e *Engine) SaveGame(ctx context.Context, cur *session.Cursor, name string) (*save.SaveGame, error) {
	if cur.State() != session.StateStatic {
		return nil, fmt.Errorf("cannot save while %s: %w", cur.State(), ErrRejected)
	}

	sg := &save.SaveGame{
		ID:          uuid.New(),
		CharacterID: cur.CharacterID,
		NodeID:      cur.NodeID,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.storage.CreateSave(ctx, sg); err != nil {
		return nil, fmt.Errorf("failed to persist save: %w", err)
	}

	e.logger.Info("Game saved", "save_id", sg.ID, "character_id", sg.CharacterID, "node_id", sg.NodeID)
	return sg, nil
}

// LoadGame restores a saved snapshot onto the cursor, rebinding the
// character and clearing any dynamic fields. Ownership is not checked.
func (e *Engine) LoadGame(ctx context.Context, cur *session.Cursor, saveID uuid.UUID) (*story.Node, error) {
	sg, err := e.storage.GetSave(ctx, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	if sg == nil {
		return nil, fmt.Errorf("save %s: %w", saveID, ErrNotFound)
	}

	node, err := e.Node(ctx, sg.NodeID)
	if err != nil {
		return nil, err
	}

	cur.CharacterID = sg.CharacterID
	cur.EnterStatic(sg.NodeID)

	e.logger.Info("Game loaded", "save_id", sg.ID, "node_id", sg.NodeID)
	return node, nil
}

// ListSaves returns save summaries for all of the user's characters,
// newest first.
func (e *Engine) ListSaves(ctx context.Context, userID uuid.UUID) ([]save.Summary, error) {
	summaries, err := e.storage.ListSaves(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return summaries, nil
}

// DeleteSave removes a save. Unlike LoadGame, the save's owning character
// must belong to the requesting user.
func (e *Engine) DeleteSave(ctx context.Context, userID, saveID uuid.UUID) error {
	sg, err := e.storage.GetSave(ctx, saveID)
	if err != nil {
		return fmt.Errorf("failed to load save: %w", err)
	}
	if sg == nil {
		return fmt.Errorf("save %s: %w", saveID, ErrNotFound)
	}

	char, err := e.storage.GetCharacter(ctx, sg.CharacterID)
	if err != nil {
		return fmt.Errorf("failed to load character: %w", err)
	}
	if char == nil || char.UserID != userID {
		return fmt.Errorf("save %s is not yours: %w", saveID, ErrRejected)
	}

	if err := e.storage.DeleteSave(ctx, saveID); err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}

	e.logger.Info("Save deleted", "save_id", saveID, "user_id", userID)
	return nil
}
