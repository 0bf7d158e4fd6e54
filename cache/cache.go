package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by GetJSON when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Store is the subset of cache behavior repositories and services rely on.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteAll(ctx context.Context, pattern string) error
	// Incr adds one to the counter at key. A new counter expires after expiration.
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

type Cache struct {
	client *redis.Client
}

// NewCache creates a new Cache instance, ensuring that the client is not nil.
func NewCache(client *redis.Client) (*Cache, error) {
	if client == nil {
		return nil, errors.New("Redis client is not initialized")
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteAll removes every key matching pattern.
func (c *Cache) DeleteAll(ctx context.Context, pattern string) error {
	// SCAN keeps large keyspaces from blocking the server
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get returns "" and no error when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *Cache) Incr(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && expiration > 0 {
		if err := c.client.Expire(ctx, key, expiration).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// GetJSON decodes a cached JSON value into dst.
func GetJSON(ctx context.Context, s Store, key string, dst interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if raw == "" {
		return ErrMiss
	}
	return json.Unmarshal([]byte(raw), dst)
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, s Store, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, expiration)
}
