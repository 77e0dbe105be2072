package cache

import (
	"context"
	"sync"

	"fraudshield/internal/domain"
	"fraudshield/internal/metrics"
)

// Memory is a process-local cache with no eviction. Concurrent misses on the
// same fingerprint each compute; the last write wins.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]domain.Verdict
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]domain.Verdict)}
}

func (m *Memory) GetOrCompute(_ context.Context, fingerprint string, compute func() domain.Verdict) domain.Verdict {
	m.mu.RLock()
	v, ok := m.entries[fingerprint]
	m.mu.RUnlock()
	if ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return v
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	v = compute()
	if v.Fallback {
		return v
	}

	m.mu.Lock()
	m.entries[fingerprint] = v
	m.mu.Unlock()
	return v
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
