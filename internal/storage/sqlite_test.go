package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/story"
	"github.com/jwebster45206/storypath/pkg/user"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestCreateUserAndLookup(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u := &user.User{
		ID:           uuid.New(),
		Username:     "maeve",
		PasswordHash: "$2a$10$fakehash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByUsername(ctx, "maeve")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := &user.User{ID: uuid.New(), Username: "maeve", PasswordHash: "h", CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, first))

	second := &user.User{ID: uuid.New(), Username: "maeve", PasswordHash: "h", CreatedAt: time.Now()}
	err := s.CreateUser(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestGetUserMissing(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.GetUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCharacterRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u := &user.User{ID: uuid.New(), Username: "maeve", PasswordHash: "h", CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, u))

	c := &character.Character{
		ID:        uuid.New(),
		UserID:    u.ID,
		Name:      "Maeve",
		Race:      "elf",
		Archetype: "rogue",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateCharacter(ctx, c))

	got, err := s.GetCharacter(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.UserID, got.UserID)
	assert.Equal(t, "elf", got.Race)
	assert.Equal(t, "rogue", got.Archetype)

	missing, err := s.GetCharacter(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSeedNodesIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	graph := story.SeedGraph()

	require.NoError(t, s.SeedNodes(ctx, graph))

	count, err := s.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(graph), count)

	// Second run must not duplicate or error
	require.NoError(t, s.SeedNodes(ctx, graph))
	count, err = s.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(graph), count)
}

func TestGetNodeChoiceOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	graph := story.SeedGraph()
	require.NoError(t, s.SeedNodes(ctx, graph))

	got, err := s.GetNode(ctx, story.StartNodeID)
	require.NoError(t, err)
	require.NotNil(t, got)

	var seed story.SeedNode
	for _, n := range graph {
		if n.ID == story.StartNodeID {
			seed = n
		}
	}
	require.Len(t, got.Choices, len(seed.Choices))
	for i, c := range got.Choices {
		assert.Equal(t, seed.Choices[i].Text, c.Text, "choice %d out of order", i)
		assert.Equal(t, seed.Choices[i].Next, c.NextNodeID)
		assert.Equal(t, story.StartNodeID, c.NodeID)
		assert.NotEmpty(t, c.ID)
	}
}

func TestGetNodeMissing(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.GetNode(context.Background(), "no_such_node")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.SeedNodes(ctx, story.SeedGraph()))

	u := &user.User{ID: uuid.New(), Username: "maeve", PasswordHash: "h", CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, u))

	c := &character.Character{ID: uuid.New(), UserID: u.ID, Name: "Maeve", Race: "elf", Archetype: "rogue", CreatedAt: time.Now()}
	require.NoError(t, s.CreateCharacter(ctx, c))

	older := &save.SaveGame{
		ID:          uuid.New(),
		CharacterID: c.ID,
		NodeID:      story.StartNodeID,
		Name:        "camp",
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	newer := &save.SaveGame{
		ID:          uuid.New(),
		CharacterID: c.ID,
		NodeID:      "dark_forest",
		Name:        "forest",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.CreateSave(ctx, older))
	require.NoError(t, s.CreateSave(ctx, newer))

	got, err := s.GetSave(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.CharacterID)
	assert.Equal(t, story.StartNodeID, got.NodeID)

	list, err := s.ListSaves(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest save should come first")
	assert.Equal(t, "Maeve", list[0].CharacterName)
	assert.NotEmpty(t, list[0].NodeSnippet)

	// Saves of other users are not listed
	other, err := s.ListSaves(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.DeleteSave(ctx, older.ID))
	gone, err := s.GetSave(ctx, older.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))

	long := snippet(stringOfLength(snippetLength + 40))
	assert.Len(t, []rune(long), snippetLength+3)
	assert.Contains(t, long, "...")
}

func stringOfLength(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestSchemaIdentifiers(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables[name] = true
	}
	require.NoError(t, rows.Err())

	for _, want := range []string{"users", "characters", "story_nodes", "choices", "save_games"} {
		assert.True(t, tables[want], "missing table %q", want)
	}

	// save_games carries the snapshot columns by their contract names
	var n int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('save_games')
		 WHERE name IN ('current_node_id', 'save_name', 'timestamp')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
