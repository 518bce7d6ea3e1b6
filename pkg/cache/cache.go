// Package cache holds normalized search results and list views keyed by
// the full query tuple. Values are stored as JSON so callers never share
// memory with a cached entry.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
)

// Cache is the bounded store behind the cache-first resolver.
type Cache interface {
	// Get decodes the entry for key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// InvalidatePrefix drops every entry whose key starts with prefix and
	// returns how many were removed.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
	Flush(ctx context.Context) error
	Stats() StatsSnapshot
	Backend() string
}

type Config struct {
	Backend  string // "memory" or "redis"
	RedisURL string
	RedisDB  int
	TTL      time.Duration
	Capacity int
}

func DefaultConfig() Config {
	return Config{
		Backend:  "memory",
		RedisURL: "redis://localhost:6379",
		TTL:      10 * time.Minute,
		Capacity: 256,
	}
}

// New builds the cache selected by cfg.Backend.
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryCache(cfg.Capacity, cfg.TTL), nil
	case "redis":
		return NewRedisCache(cfg)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// SearchKey identifies one resolved (query, category, price range, page)
// tuple.
func SearchKey(q models.SearchQuery) string {
	q = q.Normalized()
	key := fmt.Sprintf("search:%s:%s:p%d:l%d", strings.ToLower(q.Term), q.Category, q.Page, q.Limit)

	if q.MinPrice != nil {
		key += fmt.Sprintf(":minp%.2f", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		key += fmt.Sprintf(":maxp%.2f", *q.MaxPrice)
	}

	return key
}

func PopularKey(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = models.CategoryAll
	}
	return "popular:" + category
}

// ListPrefix covers every cached view of one needs list.
func ListPrefix(id models.ListID) string {
	return "list:" + id.String() + ":"
}

func ListKey(id models.ListID) string {
	return ListPrefix(id) + "view"
}

type counters struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
	errors  atomic.Uint64
}

type StatsSnapshot struct {
	Backend   string  `json:"backend"`
	Entries   int     `json:"entries"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TTL       string  `json:"ttl"`
	Capacity  int     `json:"capacity,omitempty"`
	TotalGets uint64  `json:"total_gets"`
}

func (c *counters) snapshot() StatsSnapshot {
	hits := c.hits.Load()
	misses := c.misses.Load()
	totalGets := hits + misses

	var hitRate float64
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets) * 100
	}

	return StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Errors:    c.errors.Load(),
		HitRate:   hitRate,
		TotalGets: totalGets,
	}
}
