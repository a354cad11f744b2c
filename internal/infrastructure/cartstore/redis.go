package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beautycare/backend/internal/domain"
)

const keyPrefix = "cart:"

// redisKV is the subset of the go-redis client the store uses
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps each cart as a JSON value under cart:<user_id>
type RedisStore struct {
	client redisKV
	closer func() error
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at rawURL and verifies the
// connection. A positive ttl is refreshed on every write.
func NewRedisStore(rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis connection failed: %v", domain.ErrCartStoreUnavailable, err)
	}

	return &RedisStore{client: client, closer: client.Close, ttl: ttl}, nil
}

func redisKey(userID string) string {
	return keyPrefix + userID
}

// Get retrieves a user's cart
func (s *RedisStore) Get(ctx context.Context, userID string) ([]domain.CartItem, bool, error) {
	data, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	items, err := decodeItems(data)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// Put replaces a user's cart
func (s *RedisStore) Put(ctx context.Context, userID string, items []domain.CartItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(userID), data, s.ttl).Err()
}

// Delete removes a user's cart
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, redisKey(userID)).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
