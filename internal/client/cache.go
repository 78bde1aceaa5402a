package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Domain keys of the cache.
const (
	DomainCategories   = "categories"
	DomainBalanceTotal = "balance-total"

	transactionsPrefix = "transactions-"
	statsPrefix        = "stats-"
)

// TransactionsKey is the domain of one month of transactions.
func TransactionsKey(year, month int) string {
	return fmt.Sprintf("%s%d-%d", transactionsPrefix, year, month)
}

// StatsKey is the domain of one month's totals.
func StatsKey(year, month int) string {
	return fmt.Sprintf("%s%d-%d", statsPrefix, year, month)
}

// Cache keeps one fetched value per data domain until the domain is
// invalidated. There is no expiry: staleness is resolved only by explicit
// invalidation.
type Cache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	// gen changes on every invalidation so fetches started before it never
	// store their result.
	gen   uint64
	group singleflight.Group
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]interface{})}
}

// Load returns the value cached under key, calling fetch when there is none.
// Concurrent loads of the same key share a single fetch.
func (c *Cache) Load(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%s@%d", key, gen), func() (interface{}, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Invalidate drops the given domains.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.gen++
}

// InvalidatePrefix drops every domain whose key starts with one of prefixes.
func (c *Cache) InvalidatePrefix(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				delete(c.entries, key)
				break
			}
		}
	}
	c.gen++
}

// Clear drops every domain.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{})
	c.gen++
}

// Keys lists the cached domains in order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func load[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Load(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
