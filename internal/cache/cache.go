// Package cache stores chunk summaries keyed by content hash so re-runs
// skip provider calls for unchanged code. A small in-memory LRU tier sits
// in front of an optional SQLite tier that persists across runs.
package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no entry exists for a hash.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached chunk summary. Tokens and cost record what the
// original call spent; a hit spends nothing.
type Entry struct {
	Hash     string // hex SHA-256 of the chunk text
	Summary  string
	Provider string
	Model    string
	Tokens   int
	Cost     float64
}

// Store is the persistent tier.
type Store interface {
	Get(ctx context.Context, hash string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Close() error
}

// Cache layers the memory tier over an optional store. A nil store makes
// the cache memory-only.
type Cache struct {
	mem   *Memory
	store Store
}

// New creates a cache. maxEntries sizes the memory tier; store may be nil.
func New(maxEntries int, store Store) *Cache {
	return &Cache{mem: NewMemory(maxEntries), store: store}
}

// Get looks up a hash, promoting store hits into the memory tier.
func (c *Cache) Get(ctx context.Context, hash string) (*Entry, bool) {
	if e, ok := c.mem.Get(hash); ok {
		return e, true
	}
	if c.store == nil {
		return nil, false
	}
	e, err := c.store.Get(ctx, hash)
	if err != nil {
		return nil, false
	}
	c.mem.Set(e)
	return e, true
}

// Put writes an entry to both tiers. Store failures are returned but the
// memory tier is already updated; callers treat persistence as best effort.
func (c *Cache) Put(ctx context.Context, e *Entry) error {
	c.mem.Set(e)
	if c.store == nil {
		return nil
	}
	return c.store.Put(ctx, e)
}

// Close releases the persistent tier.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
