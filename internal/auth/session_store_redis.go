package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps session records in Redis so sessions survive API
// restarts. Records expire with the Redis TTL; a companion user index key
// supports single-session-per-user eviction.
type RedisSessionStore struct {
	redis *redis.Client
}

// NewRedisSessionStore wraps an already-connected client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{redis: client}
}

func (r *RedisSessionStore) tokenKey(token string) string {
	return "mdental:session:" + token
}

func (r *RedisSessionStore) userKey(userID string) string {
	return "mdental:user_session:" + userID
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.redis.Get(ctx, r.tokenKey(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// Corrupt record: purge and report absent.
		r.redis.Del(ctx, r.tokenKey(token))
		return nil, ErrSessionNotFound
	}
	if s.Expired(time.Now().UTC()) {
		_ = r.Delete(ctx, token)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("auth: session already expired")
	}
	if err := r.redis.Set(ctx, r.tokenKey(s.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("auth: store session: %w", err)
	}
	if err := r.redis.Set(ctx, r.userKey(s.UserID), s.Token, ttl).Err(); err != nil {
		return fmt.Errorf("auth: store session index: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	s, err := r.Get(ctx, token)
	if err == nil {
		r.redis.Del(ctx, r.userKey(s.UserID))
	}
	if err := r.redis.Del(ctx, r.tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) DeleteUser(ctx context.Context, userID string) error {
	token, err := r.redis.Get(ctx, r.userKey(userID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth: lookup user session: %w", err)
	}
	r.redis.Del(ctx, r.tokenKey(token))
	r.redis.Del(ctx, r.userKey(userID))
	return nil
}
