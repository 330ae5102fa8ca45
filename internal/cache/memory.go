package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultMemoryEntries caps the memory tier when no size is configured.
const defaultMemoryEntries = 10000

// Memory is the in-process LRU tier.
type Memory struct {
	cache *lru.Cache[string, *Entry]
}

// NewMemory creates the memory tier with LRU eviction.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	cache, err := lru.New[string, *Entry](maxEntries)
	if err != nil {
		// Only reachable with a non-positive size, which we just excluded.
		cache, _ = lru.New[string, *Entry](defaultMemoryEntries)
	}
	return &Memory{cache: cache}
}

// Get returns a copy of the entry so caller mutations cannot pollute the
// cached value.
func (m *Memory) Get(hash string) (*Entry, bool) {
	e, ok := m.cache.Get(hash)
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// Set stores an entry, evicting the least recently used at capacity.
func (m *Memory) Set(e *Entry) {
	cp := *e
	m.cache.Add(e.Hash, &cp)
}

// Len returns the current entry count.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Purge empties the tier.
func (m *Memory) Purge() {
	m.cache.Purge()
}
