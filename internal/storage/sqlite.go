package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/story"
	"github.com/jwebster45206/storypath/pkg/user"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS characters (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	name       TEXT NOT NULL,
	race       TEXT NOT NULL,
	archetype  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS story_nodes (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS choices (
	id           TEXT PRIMARY KEY,
	node_id      TEXT NOT NULL REFERENCES story_nodes(id),
	text         TEXT NOT NULL,
	next_node_id TEXT NOT NULL,
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS save_games (
	id              TEXT PRIMARY KEY,
	character_id    TEXT NOT NULL REFERENCES characters(id),
	current_node_id TEXT NOT NULL,
	save_name       TEXT NOT NULL,
	timestamp       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_characters_user ON characters(user_id);
CREATE INDEX IF NOT EXISTS idx_choices_node ON choices(node_id);
CREATE INDEX IF NOT EXISTS idx_save_games_character ON save_games(character_id);
`

// snippetLength is the number of runes of node text shown in save listings.
const snippetLength = 80

// SQLiteStorage implements the Storage interface backed by a SQLite file
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStorage implements Storage interface
var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", "error", err)
		return err
	}
	s.logger.Info("Database closed")
	return nil
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", u.Username, ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username)

	var (
		u  user.User
		id string
	)
	if err := row.Scan(&id, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", id, err)
	}
	u.ID = parsed
	return &u, nil
}

func (s *SQLiteStorage) CreateCharacter(ctx context.Context, c *character.Character) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (id, user_id, name, race, archetype, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.UserID.String(), c.Name, c.Race, c.Archetype, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, race, archetype, created_at FROM characters WHERE id = ?`,
		id.String())

	var (
		c              character.Character
		rawID, rawUser string
	)
	if err := row.Scan(&rawID, &rawUser, &c.Name, &c.Race, &c.Archetype, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	var err error
	if c.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("corrupt character id %q: %w", rawID, err)
	}
	if c.UserID, err = uuid.Parse(rawUser); err != nil {
		return nil, fmt.Errorf("corrupt character user id %q: %w", rawUser, err)
	}
	return &c, nil
}

func (s *SQLiteStorage) GetNode(ctx context.Context, id string) (*story.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, text, created_at FROM story_nodes WHERE id = ?`, id)

	var n story.Node
	if err := row.Scan(&n.ID, &n.Text, &n.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, node_id, text, next_node_id FROM choices WHERE node_id = ? ORDER BY position`,
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c story.Choice
		if err := rows.Scan(&c.ID, &c.NodeID, &c.Text, &c.NextNodeID); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		n.Choices = append(n.Choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read choices: %w", err)
	}

	return &n, nil
}

func (s *SQLiteStorage) CountNodes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM story_nodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// SeedNodes populates the story graph if it is empty. Re-running against a
// seeded database is a no-op, so startup seeding is idempotent.
func (s *SQLiteStorage) SeedNodes(ctx context.Context, nodes []story.SeedNode) error {
	count, err := s.CountNodes(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Debug("Story graph already seeded", "nodes", count)
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO story_nodes (id, text, created_at) VALUES (?, ?, ?)`,
			n.ID, n.Text, now); err != nil {
			return fmt.Errorf("failed to seed node %q: %w", n.ID, err)
		}
		for i, c := range n.Choices {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO choices (id, node_id, text, next_node_id, position) VALUES (?, ?, ?, ?, ?)`,
				uuid.NewString(), n.ID, c.Text, c.Next, i); err != nil {
				return fmt.Errorf("failed to seed choice %d of node %q: %w", i, n.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	s.logger.Info("Story graph seeded", "nodes", len(nodes))
	return nil
}

func (s *SQLiteStorage) CreateSave(ctx context.Context, sg *save.SaveGame) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO save_games (id, character_id, current_node_id, save_name, timestamp) VALUES (?, ?, ?, ?, ?)`,
		sg.ID.String(), sg.CharacterID.String(), sg.NodeID, sg.Name, sg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create save: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetSave(ctx context.Context, id uuid.UUID) (*save.SaveGame, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, character_id, current_node_id, save_name, timestamp FROM save_games WHERE id = ?`,
		id.String())

	var (
		sg             save.SaveGame
		rawID, rawChar string
	)
	if err := row.Scan(&rawID, &rawChar, &sg.NodeID, &sg.Name, &sg.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get save: %w", err)
	}

	var err error
	if sg.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("corrupt save id %q: %w", rawID, err)
	}
	if sg.CharacterID, err = uuid.Parse(rawChar); err != nil {
		return nil, fmt.Errorf("corrupt save character id %q: %w", rawChar, err)
	}
	return &sg, nil
}

// ListSaves returns all saves belonging to the user's characters, newest
// first, joined with character name and a snippet of the saved node's text.
func (s *SQLiteStorage) ListSaves(ctx context.Context, userID uuid.UUID) ([]save.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.character_id, s.current_node_id, s.save_name, s.timestamp, c.name, n.text
		 FROM save_games s
		 JOIN characters c ON c.id = s.character_id
		 LEFT JOIN story_nodes n ON n.id = s.current_node_id
		 WHERE c.user_id = ?
		 ORDER BY s.timestamp DESC`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]save.Summary, 0)
	for rows.Next() {
		var (
			sum            save.Summary
			rawID, rawChar string
			nodeText       sql.NullString
		)
		if err := rows.Scan(&rawID, &rawChar, &sum.NodeID, &sum.Name, &sum.CreatedAt,
			&sum.CharacterName, &nodeText); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		if sum.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("corrupt save id %q: %w", rawID, err)
		}
		if sum.CharacterID, err = uuid.Parse(rawChar); err != nil {
			return nil, fmt.Errorf("corrupt save character id %q: %w", rawChar, err)
		}
		sum.NodeSnippet = snippet(nodeText.String)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read saves: %w", err)
	}

	return summaries, nil
}

func (s *SQLiteStorage) DeleteSave(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM save_games WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
