// Package session provides the server-side session registry. The
// signed cookie is the authentication credential; the registry exists
// for logout revocation and last-activity tracking. Gate-level 401
// semantics never depend on the registry being reachable.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is the data stored per active session.
type Entry struct {
	UserID          string    `json:"user_id"`
	WeddingConfigID string    `json:"wedding_config_id"`
	LastActivity    time.Time `json:"last_activity"`
}

// RedisStore implements the session registry on Redis. Keys carry the
// session TTL so expiry needs no sweeper.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "sess:"}, nil
}

// NewRedisStoreWithClient creates a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "sess:"}
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

// Save registers a session under the cookie's hash with the cookie's
// lifetime as TTL.
func (s *RedisStore) Save(ctx context.Context, tokenHash string, entry Entry, ttl time.Duration) error {
	if entry.LastActivity.IsZero() {
		entry.LastActivity = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal session entry: %w", err)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if err := s.client.Set(ctx, s.key(tokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup returns the entry for a token hash; a missing key means the
// session was revoked or expired.
func (s *RedisStore) Lookup(ctx context.Context, tokenHash string) (Entry, error) {
	data, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if err == redis.Nil {
		return Entry{}, fmt.Errorf("session not found or expired")
	}
	if err != nil {
		return Entry{}, fmt.Errorf("lookup session: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return Entry{}, fmt.Errorf("unmarshal session entry: %w", err)
	}
	return entry, nil
}

// Touch refreshes last-activity without extending the TTL.
func (s *RedisStore) Touch(ctx context.Context, tokenHash string) error {
	key := s.key(tokenHash)
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return fmt.Errorf("unmarshal session entry: %w", err)
	}
	entry.LastActivity = time.Now()

	updated, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal session entry: %w", err)
	}
	if err := s.client.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Revoke deletes a session; revoking an unknown hash is not an error.
func (s *RedisStore) Revoke(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
