// Package cache provides a Redis-backed core.ProductCache for category
// listings.
//
// Each listing is stored as a JSON array under its own key. Every key written
// is also recorded in a set so Invalidate can drop them all without SCAN.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

const (
	defaultPrefix = "stockpilot"
	allKey        = "all"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key namespace (default: stockpilot)
}

// RedisCache implements core.ProductCache.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ core.ProductCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg Config) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("connected to redis", "addr", cfg.Addr, "db", cfg.DB)

	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// productsKey returns the key for a category listing; "" is the full list.
func (c *RedisCache) productsKey(category string) string {
	if category == "" {
		category = allKey
	} else {
		// Keep real categories out of the "all" slot.
		category = "c:" + category
	}
	return c.prefix + ":products:" + category
}

func (c *RedisCache) keySet() string {
	return c.prefix + ":products:keys"
}

// GetProducts returns the cached listing for category. A missing key is a
// miss, not an error.
func (c *RedisCache) GetProducts(ctx context.Context, category string) ([]core.Product, bool, error) {
	data, err := c.client.Get(ctx, c.productsKey(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached products: %w", err)
	}

	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("decode cached products: %w", err)
	}
	return products, true, nil
}

// SetProducts stores a listing with the given TTL.
func (c *RedisCache) SetProducts(ctx context.Context, category string, products []core.Product, ttl time.Duration) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}

	key := c.productsKey(category)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		pipe.SAdd(ctx, c.keySet(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set cached products: %w", err)
	}
	return nil
}

// Invalidate drops every cached listing.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, c.keySet()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list cached keys: %w", err)
	}

	keys = append(keys, c.keySet())
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached keys: %w", err)
	}
	return nil
}
