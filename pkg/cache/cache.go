package cache

import (
	"context"
	"sync"

	"github.com/foodifind/foodifind/pkg/model"
)

// DefaultMaxEntries bounds the in-memory cache so a long-running process
// with many distinct queries cannot grow without limit.
const DefaultMaxEntries = 512

// Cache stores discovery results keyed by normalized query text. A cached
// result is sticky: there is no freshness check and no per-entry expiry on
// the memory backend.
type Cache interface {
	// Get returns the cached result for key, or nil when absent
	Get(ctx context.Context, key string) (*model.DiscoveryResult, error)

	// Set stores the result under key
	Set(ctx context.Context, key string, result *model.DiscoveryResult) error
}

// Memory is the default in-process cache. When the entry count exceeds the
// bound, the oldest inserted entry is evicted.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*model.DiscoveryResult
	order      []string
	maxEntries int
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]*model.DiscoveryResult),
		maxEntries: maxEntries,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (*model.DiscoveryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *Memory) Set(ctx context.Context, key string, result *model.DiscoveryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
		if len(m.order) > m.maxEntries {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.entries, oldest)
		}
	}
	m.entries[key] = result
	return nil
}

// Len returns the current number of cached entries
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
