package sessionstore

import (
	"context"
	"sync"

	"github.com/jwebster45206/storypath/pkg/session"
)

// MockStore is an in-memory Store implementation for testing
type MockStore struct {
	GetFunc    func(ctx context.Context, sessionID string) (*session.Cursor, error)
	PutFunc    func(ctx context.Context, sessionID string, cursor *session.Cursor) error
	DeleteFunc func(ctx context.Context, sessionID string) error

	cursors   map[string]*session.Cursor
	pingError error

	mu sync.RWMutex
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new mock session store
func NewMockStore() *MockStore {
	return &MockStore{
		cursors: make(map[string]*session.Cursor),
	}
}

func (m *MockStore) Get(ctx context.Context, sessionID string) (*session.Cursor, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, sessionID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cursor, ok := m.cursors[sessionID]
	if !ok {
		return nil, nil
	}

	// Copy so callers can't mutate stored state
	c := *cursor
	return &c, nil
}

func (m *MockStore) Put(ctx context.Context, sessionID string, cursor *session.Cursor) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, sessionID, cursor)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cursor
	m.cursors[sessionID] = &c
	return nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cursors, sessionID)
	return nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error {
	return nil
}

// SetPingError sets the error returned by Ping
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}
