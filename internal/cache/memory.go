package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/market-scout/internal/metrics"
)

// Memory is an in-process Cache with TTL-only expiry. Growth is unbounded;
// at the request volumes this service sees that is fine, but a production
// hardening pass should add size-based eviction.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	createdAt time.Time
}

// NewMemory creates a memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key if present and unexpired. Expired entries
// are deleted on access.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, false
	}
	if m.now().Sub(entry.createdAt) >= m.ttl {
		delete(m.entries, key)
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("memory").Inc()
	return entry.value, true
}

// Set stores value under key. Concurrent writers for the same key race to
// the last write.
func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, createdAt: m.now()}
}
