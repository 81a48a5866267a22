package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/storypath/pkg/character"
	"github.com/jwebster45206/storypath/pkg/save"
	"github.com/jwebster45206/storypath/pkg/story"
	"github.com/jwebster45206/storypath/pkg/user"
)

// MockStorage is an in-memory Storage implementation for testing. Behavior
// can be overridden per method with the corresponding Func field.
type MockStorage struct {
	GetNodeFunc    func(ctx context.Context, id string) (*story.Node, error)
	ListSavesFunc  func(ctx context.Context, userID uuid.UUID) ([]save.Summary, error)
	CreateSaveFunc func(ctx context.Context, s *save.SaveGame) error

	users      map[string]*user.User // keyed by username
	characters map[uuid.UUID]*character.Character
	nodes      map[string]*story.Node
	saves      map[uuid.UUID]*save.SaveGame
	pingError  error

	mu sync.RWMutex
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		users:      make(map[string]*user.User),
		characters: make(map[uuid.UUID]*character.Character),
		nodes:      make(map[string]*story.Node),
		saves:      make(map[uuid.UUID]*save.SaveGame),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SetPingError sets the error returned by Ping
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) CreateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.Username]; exists {
		return fmt.Errorf("username %q: %w", u.Username, ErrConflict)
	}
	copied := *u
	m.users[u.Username] = &copied
	return nil
}

func (m *MockStorage) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *MockStorage) CreateCharacter(ctx context.Context, c *character.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *c
	m.characters[c.ID] = &copied
	return nil
}

func (m *MockStorage) GetCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.characters[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *MockStorage) GetNode(ctx context.Context, id string) (*story.Node, error) {
	if m.GetNodeFunc != nil {
		return m.GetNodeFunc(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	copied := *n
	copied.Choices = append([]story.Choice(nil), n.Choices...)
	return &copied, nil
}

func (m *MockStorage) CountNodes(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes), nil
}

func (m *MockStorage) SeedNodes(ctx context.Context, nodes []story.SeedNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.nodes) > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, sn := range nodes {
		n := &story.Node{ID: sn.ID, Text: sn.Text, CreatedAt: now}
		for _, sc := range sn.Choices {
			n.Choices = append(n.Choices, story.Choice{
				ID:         uuid.NewString(),
				NodeID:     sn.ID,
				Text:       sc.Text,
				NextNodeID: sc.Next,
			})
		}
		m.nodes[sn.ID] = n
	}
	return nil
}

func (m *MockStorage) CreateSave(ctx context.Context, s *save.SaveGame) error {
	if m.CreateSaveFunc != nil {
		return m.CreateSaveFunc(ctx, s)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *s
	m.saves[s.ID] = &copied
	return nil
}

func (m *MockStorage) GetSave(ctx context.Context, id uuid.UUID) (*save.SaveGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.saves[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *MockStorage) ListSaves(ctx context.Context, userID uuid.UUID) ([]save.Summary, error) {
	if m.ListSavesFunc != nil {
		return m.ListSavesFunc(ctx, userID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]save.Summary, 0)
	for _, s := range m.saves {
		c, ok := m.characters[s.CharacterID]
		if !ok || c.UserID != userID {
			continue
		}
		sum := save.Summary{SaveGame: *s, CharacterName: c.Name}
		if n, ok := m.nodes[s.NodeID]; ok {
			sum.NodeSnippet = snippet(n.Text)
		}
		summaries = append(summaries, sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (m *MockStorage) DeleteSave(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.saves, id)
	return nil
}
