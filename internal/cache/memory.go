package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"gitstats/internal/platform/metrics"
)

// Memory is an in process TTL cache backed by otter
type Memory struct {
	c   *otter.Cache[string, []byte]
	obs metrics.Observer
}

// NewMemory builds a bounded write expiring cache
func NewMemory(maxSize int, ttl time.Duration, obs metrics.Observer) *Memory {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	initial := maxSize
	if initial > 64 {
		initial = 64
	}
	return &Memory{
		c: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      maxSize,
			InitialCapacity:  initial,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](ttl),
		}),
		obs: metrics.OrNop(obs),
	}
}

// Get implements Cache
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.GetIfPresent(key)
	if ok {
		m.obs.CacheHit()
	} else {
		m.obs.CacheMiss()
	}
	return v, ok
}

// Set implements Cache
func (m *Memory) Set(_ context.Context, key string, val []byte) { m.c.Set(key, val) }

// Delete implements Cache
func (m *Memory) Delete(_ context.Context, key string) { m.c.Invalidate(key) }

// Len implements Cache
func (m *Memory) Len() int { return m.c.EstimatedSize() }
