package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/storypath/pkg/session"
)

const cursorKeyPrefix = "cursor:"

// RedisStore implements the Store interface using Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStore{
		client: rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (*session.Cursor, error) {
	cmd := r.client.Get(ctx, cursorKeyPrefix+sessionID)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Debug("Session not found", "session_id", sessionID)
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cursor session.Cursor
	if err := json.Unmarshal([]byte(cmd.Val()), &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}

	return &cursor, nil
}

func (r *RedisStore) Put(ctx context.Context, sessionID string, cursor *session.Cursor) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor: %w", err)
	}

	cmd := r.client.Set(ctx, cursorKeyPrefix+sessionID, data, r.ttl)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Redis SET failed", "session_id", sessionID, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	cmd := r.client.Del(ctx, cursorKeyPrefix+sessionID)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Redis DEL failed", "session_id", sessionID, "error", err)
		return fmt.Errorf("redis del failed: %w", err)
	}

	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available with retries
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
