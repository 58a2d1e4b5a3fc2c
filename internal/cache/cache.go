// Package cache implements the tiered key/category store backing the
// cached record service. Tier 1 is an in-process typed map; an optional
// tier 2 holds JSON payloads (redis) so composed results survive restarts.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/metrics"
)

// Entry is a single cached value. A zero ExpiresAt means no TTL.
type Entry struct {
	Key       string
	Category  string
	Value     interface{}
	ExpiresAt time.Time
}

// Stats are aggregate hit/miss counters plus live per-category sizes.
type Stats struct {
	Hits            uint64
	Misses          uint64
	PerCategorySize map[string]int
}

// BytesTier is an optional second cache tier holding JSON payloads.
type BytesTier interface {
	Get(ctx context.Context, category, key string) ([]byte, bool)
	Set(ctx context.Context, category, key string, value []byte, ttl time.Duration)
	ClearCategory(ctx context.Context, category string)
	Clear(ctx context.Context)
}

// Options tunes a TieredCache. Zero values select the defaults.
type Options struct {
	// Clock overrides time.Now, used by TTL tests with a simulated clock.
	Clock func() time.Time
	// Tier2 attaches a second tier. Nil disables it.
	Tier2 BytesTier
}

// TieredCache is safe for concurrent use from multiple query pipelines.
// Reads and writes are independent per key; concurrent population of the
// same key resolves last-write-wins.
type TieredCache struct {
	mu         sync.RWMutex
	categories map[string]map[string]Entry

	hits   atomic.Uint64
	misses atomic.Uint64

	clock  func() time.Time
	tier2  BytesTier
	logger logger.Logger
}

func New(log logger.Logger, opts *Options) *TieredCache {
	c := &TieredCache{
		categories: make(map[string]map[string]Entry),
		clock:      time.Now,
		logger:     log.With(map[string]interface{}{"component": "cache"}),
	}
	if opts != nil {
		if opts.Clock != nil {
			c.clock = opts.Clock
		}
		c.tier2 = opts.Tier2
	}
	return c
}

// Get returns the tier-1 value for (key, category). An expired entry is a
// guaranteed miss and is discarded in place; no background sweep exists.
func (c *TieredCache) Get(ctx context.Context, key, category string) (interface{}, bool) {
	v, _, ok := c.Lookup(ctx, key, category)
	return v, ok
}

// Lookup checks tier 1 then tier 2. A tier-1 hit returns the typed value;
// a tier-2 hit returns the raw JSON payload for the caller to decode and
// promote. Either counts as a hit; everything else is a miss.
func (c *TieredCache) Lookup(ctx context.Context, key, category string) (interface{}, []byte, bool) {
	now := c.clock()

	c.mu.RLock()
	entry, ok := c.categories[category][key]
	c.mu.RUnlock()

	if ok {
		if entry.ExpiresAt.IsZero() || now.Before(entry.ExpiresAt) {
			c.hits.Add(1)
			metrics.CacheHits.WithLabelValues(category).Inc()
			return entry.Value, nil, true
		}
		// Lazy eviction: drop the stale entry on read.
		c.mu.Lock()
		if cur, still := c.categories[category][key]; still && cur.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.categories[category], key)
		}
		c.mu.Unlock()
	}

	if c.tier2 != nil {
		if raw, ok := c.tier2.Get(ctx, category, key); ok {
			c.hits.Add(1)
			metrics.CacheHits.WithLabelValues(category).Inc()
			return nil, raw, true
		}
	}

	c.misses.Add(1)
	metrics.CacheMisses.WithLabelValues(category).Inc()
	return nil, nil, false
}

// Set stores value under (key, category) with the given TTL in both tiers.
// ttl <= 0 stores without expiry.
func (c *TieredCache) Set(ctx context.Context, key string, value interface{}, category string, ttl time.Duration) {
	entry := Entry{Key: key, Category: category, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = c.clock().Add(ttl)
	}

	c.mu.Lock()
	bucket, ok := c.categories[category]
	if !ok {
		bucket = make(map[string]Entry)
		c.categories[category] = bucket
	}
	bucket[key] = entry
	c.mu.Unlock()

	if c.tier2 != nil {
		if raw, err := json.Marshal(value); err == nil {
			c.tier2.Set(ctx, category, key, raw, ttl)
		} else {
			c.logger.Warn("tier2 set skipped, value not serializable", map[string]interface{}{
				"category": category,
				"key":      key,
				"error":    err.Error(),
			})
		}
	}
}

// Promote re-populates tier 1 after a tier-2 hit was decoded by the caller.
func (c *TieredCache) Promote(key string, value interface{}, category string, ttl time.Duration) {
	entry := Entry{Key: key, Category: category, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = c.clock().Add(ttl)
	}
	c.mu.Lock()
	bucket, ok := c.categories[category]
	if !ok {
		bucket = make(map[string]Entry)
		c.categories[category] = bucket
	}
	bucket[key] = entry
	c.mu.Unlock()
}

// ClearCategory drops every entry in one category. Categories are
// independent namespaces, so a write path busting "tasks" never touches
// "employees".
func (c *TieredCache) ClearCategory(ctx context.Context, category string) {
	c.mu.Lock()
	delete(c.categories, category)
	c.mu.Unlock()

	if c.tier2 != nil {
		c.tier2.ClearCategory(ctx, category)
	}
}

// Clear drops everything.
func (c *TieredCache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.categories = make(map[string]map[string]Entry)
	c.mu.Unlock()

	if c.tier2 != nil {
		c.tier2.Clear(ctx)
	}
}

// Stats returns aggregate counters and the live (non-expired) size of each
// category.
func (c *TieredCache) Stats() Stats {
	now := c.clock()
	sizes := make(map[string]int)

	c.mu.RLock()
	for category, bucket := range c.categories {
		n := 0
		for _, entry := range bucket {
			if entry.ExpiresAt.IsZero() || now.Before(entry.ExpiresAt) {
				n++
			}
		}
		sizes[category] = n
	}
	c.mu.RUnlock()

	return Stats{
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		PerCategorySize: sizes,
	}
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *TieredCache) HitRate() float64 {
	h := c.hits.Load()
	m := c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}
