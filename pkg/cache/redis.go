package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "needfully:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	stats  counters
}

// NewRedisCache connects to cfg.RedisURL and verifies the connection.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	redisURL := cfg.RedisURL
	if redisURL == "" {
		redisURL = DefaultConfig().RedisURL
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	log.Printf("Redis connected successfully, DB: %d, TTL: %s", cfg.RedisDB, ttl)

	return NewRedisCacheWithClient(client, ttl), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.stats.misses.Add(1)
		return false, nil
	}
	if err != nil {
		r.stats.errors.Add(1)
		return false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		r.stats.errors.Add(1)
		return false, fmt.Errorf("json unmarshal error: %w", err)
	}

	r.stats.hits.Add(1)
	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.stats.errors.Add(1)
		return fmt.Errorf("json marshal error: %w", err)
	}

	if err := r.client.Set(ctx, redisPrefix+key, data, r.ttl).Err(); err != nil {
		r.stats.errors.Add(1)
		return fmt.Errorf("redis set error: %w", err)
	}

	r.stats.sets.Add(1)
	return nil
}

func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisPrefix+prefix+"*", 100).Result()
		if err != nil {
			r.stats.errors.Add(1)
			return deleted, fmt.Errorf("redis scan error: %w", err)
		}

		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				r.stats.errors.Add(1)
				return deleted, fmt.Errorf("redis delete error: %w", err)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.stats.deletes.Add(uint64(deleted))
	return deleted, nil
}

// Flush removes every key owned by this cache, leaving the rest of the
// database alone.
func (r *RedisCache) Flush(ctx context.Context) error {
	_, err := r.InvalidatePrefix(ctx, "")
	return err
}

// Keys lists cached keys (without the namespace prefix) for debugging.
func (r *RedisCache) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan error: %w", err)
		}
		for _, k := range keys {
			out = append(out, k[len(redisPrefix):])
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

func (r *RedisCache) KeyTTL(ctx context.Context, key string) time.Duration {
	ttl, err := r.client.TTL(ctx, redisPrefix+key).Result()
	if err != nil {
		return 0
	}
	return ttl
}

func (r *RedisCache) Stats() StatsSnapshot {
	s := r.stats.snapshot()
	s.Backend = r.Backend()
	s.TTL = r.ttl.String()
	if keys, err := r.Keys(context.Background()); err == nil {
		s.Entries = len(keys)
	}
	return s
}

func (r *RedisCache) Backend() string { return "redis" }

// Ping checks the server is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
