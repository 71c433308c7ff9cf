package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
)

var _ auth.TokenStore = (*TokenStore)(nil)

// TokenStore keeps tokens in Redis under a common key prefix.
type TokenStore struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewTokenStore returns a TokenStore. A zero ttl keeps tokens until deleted.
func NewTokenStore(client goredis.UniversalClient, prefix string, ttl time.Duration) *TokenStore {
	return &TokenStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *TokenStore) key(k string) string {
	return s.prefix + k
}

// Get returns the token stored under key, or auth.ErrTokenNotFound.
func (s *TokenStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", auth.ErrTokenNotFound
		}
		return "", errors.Wrapf(err, "get %s", key)
	}
	return v, nil
}

func (s *TokenStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// Ping checks connectivity; used by the readiness probe.
func (s *TokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
