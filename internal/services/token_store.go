package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// TokenStore keeps at most one live refresh token per user.
type TokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

type RedisTokenStore struct {
	redis *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{redis: client}
}

func refreshKey(token string) string         { return "refresh:" + token }
func userRefreshKey(userID uuid.UUID) string { return "user_refresh:" + userID.String() }

// Save stores token for userID and drops the user's previous token.
func (s *RedisTokenStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	previous, err := s.redis.Get(ctx, userRefreshKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read current refresh token: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != "" {
			pipe.Del(ctx, refreshKey(previous))
		}
		pipe.Set(ctx, refreshKey(token), userID.String(), ttl)
		pipe.Set(ctx, userRefreshKey(userID), token, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.redis.Get(ctx, refreshKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	return s.redis.Del(ctx, refreshKey(token)).Err()
}

func (s *RedisTokenStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	token, err := s.redis.Get(ctx, userRefreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.redis.Del(ctx, refreshKey(token), userRefreshKey(userID)).Err()
}
