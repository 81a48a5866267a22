package sessionstore

import (
	"context"

	"github.com/jwebster45206/storypath/pkg/session"
)

// Store persists session cursors between requests. Implementations
// return (nil, nil) from Get when no cursor exists for the id.
type Store interface {
	Get(ctx context.Context, sessionID string) (*session.Cursor, error)
	Put(ctx context.Context, sessionID string, cursor *session.Cursor) error
	Delete(ctx context.Context, sessionID string) error

	Ping(ctx context.Context) error
	Close() error
}
