// Package cache stores recent search responses in process memory or Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// LRU is a size-bounded in-process cache whose entries expire after a TTL.
type LRU[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewLRU returns a cache holding at most size entries for ttl each.
func NewLRU[V any](size int, ttl time.Duration) *LRU[V] {
	return &LRU[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *LRU[V]) Get(_ context.Context, key string) (V, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *LRU[V]) Set(_ context.Context, key string, value V) error {
	c.lru.Add(key, value)
	return nil
}

// Len reports the number of live entries.
func (c *LRU[V]) Len() int {
	return c.lru.Len()
}

// Redis shares cached values between processes as JSON.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps client. Keys are stored under prefix.
func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var value V
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("decode cached value: %w", err)
	}
	return value, true, nil
}

func (c *Redis[V]) Set(ctx context.Context, key string, value V) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached value: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
