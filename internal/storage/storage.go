package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/story"
	"github.com/jwebster45206/storypath/pkg/user"
)

// ErrConflict is returned when a unique constraint is violated, such as a
// duplicate username.
var ErrConflict = errors.New("already exists")

// Storage defines the interface for persistent data operations. Lookup
// methods return (nil, nil) when no row exists.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	// User operations
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)

	// Character operations
	CreateCharacter(ctx context.Context, c *character.Character) error
	GetCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error)

	// Story graph operations
	GetNode(ctx context.Context, id string) (*story.Node, error)
	CountNodes(ctx context.Context) (int, error)
	SeedNodes(ctx context.Context, nodes []story.SeedNode) error

	// Save game operations
	CreateSave(ctx context.Context, s *save.SaveGame) error
	GetSave(ctx context.Context, id uuid.UUID) (*save.SaveGame, error)
	ListSaves(ctx context.Context, userID uuid.UUID) ([]save.Summary, error)
	DeleteSave(ctx context.Context, id uuid.UUID) error
}
