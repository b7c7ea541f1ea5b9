package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	result    CachedResult
	expiresAt time.Time
}

// MemoryCache is the single-process fallback used when REDIS_ADDR is not
// configured, and by tests. Last write wins, matching the shared-cache
// policy for racing upserts.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) (*CachedResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, result CachedResult, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	now := m.now()
	m.mu.Lock()
	m.entries[key] = memoryEntry{result: result, expiresAt: now.Add(ttl)}
	// Opportunistic sweep so an idle process does not accumulate dead keys.
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
	return nil
}
