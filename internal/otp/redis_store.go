package otp

import (
	"context"
	"time"
)

type kvClient interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
	OTPKey(role, purpose string, principalID uint) string
}

// RedisStore keeps codes in redis so every API instance sees the same slot.
// Expiry is enforced by the key TTL.
type RedisStore struct {
	client kvClient
}

func NewRedisStore(client kvClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, key Key, code string, ttl time.Duration) error {
	return s.client.Set(ctx, s.slot(key), code, ttl)
}

func (s *RedisStore) Consume(ctx context.Context, key Key, code string) (bool, error) {
	return s.client.CompareAndDelete(ctx, s.slot(key), code)
}

func (s *RedisStore) slot(key Key) string {
	return s.client.OTPKey(key.Role.String(), key.Purpose.String(), key.PrincipalID)
}
