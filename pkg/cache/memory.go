package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is an in-process LRU with a fixed capacity and a per-entry
// time-to-live.
type MemoryCache struct {
	lru      *expirable.LRU[string, []byte]
	ttl      time.Duration
	capacity int
	stats    counters
}

func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultConfig().Capacity
	}
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	return &MemoryCache{
		lru:      expirable.NewLRU[string, []byte](capacity, nil, ttl),
		ttl:      ttl,
		capacity: capacity,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	data, ok := m.lru.Get(key)
	if !ok {
		m.stats.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		m.stats.errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	m.stats.hits.Add(1)
	return true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		m.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	m.lru.Add(key, data)
	m.stats.sets.Add(1)
	return nil
}

func (m *MemoryCache) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	removed := 0
	for _, key := range m.lru.Keys() {
		if strings.HasPrefix(key, prefix) && m.lru.Remove(key) {
			removed++
		}
	}
	m.stats.deletes.Add(uint64(removed))
	return removed, nil
}

func (m *MemoryCache) Flush(context.Context) error {
	m.lru.Purge()
	return nil
}

// Keys lists live keys, oldest first.
func (m *MemoryCache) Keys(context.Context) ([]string, error) {
	return m.lru.Keys(), nil
}

func (m *MemoryCache) Stats() StatsSnapshot {
	s := m.stats.snapshot()
	s.Backend = m.Backend()
	s.Entries = m.lru.Len()
	s.TTL = m.ttl.String()
	s.Capacity = m.capacity
	return s
}

func (m *MemoryCache) Backend() string { return "memory" }
