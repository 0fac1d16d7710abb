package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mkarag/riskfolio/internal/domain"
)

// seriesCache is a bounded, concurrency-safe cache of price series keyed by
// (lowercased symbol, days). Eviction is insertion-order FIFO: once the cache
// exceeds maxEntries it drops oldest entries until at or below half the
// maximum. A simple bound chosen over LRU on purpose; the external contract
// does not change if the policy is upgraded.
type seriesCache struct {
	mu         sync.RWMutex
	maxEntries int
	entries    map[string]*domain.PriceSeries
	order      []string
}

func newSeriesCache(maxEntries int) *seriesCache {
	if maxEntries < 2 {
		maxEntries = 2
	}
	return &seriesCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*domain.PriceSeries),
	}
}

func cacheKey(symbol string, days int) string {
	return fmt.Sprintf("%s|%d", symbol, days)
}

// Get returns a defensive copy of the cached series, if present. Readers hold
// clones, so eviction can never corrupt a series being actively read.
func (c *seriesCache) Get(symbol string, days int) (*domain.PriceSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	series, ok := c.entries[cacheKey(symbol, days)]
	if !ok {
		return nil, false
	}
	return series.Clone(), true
}

// Put stores a copy of the series and applies the eviction bound.
func (c *seriesCache) Put(series *domain.PriceSeries) {
	key := cacheKey(series.Symbol, series.RequestedDays)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		// Re-insertion keeps the original FIFO position.
		c.entries[key] = series.Clone()
		return
	}

	c.entries[key] = series.Clone()
	c.order = append(c.order, key)

	if len(c.entries) <= c.maxEntries {
		return
	}
	// Evict oldest-first until occupancy drops below half the maximum.
	target := c.maxEntries/2 - 1
	if target < 1 {
		target = 1
	}
	for len(c.entries) > target && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Delete removes a single entry.
func (c *seriesCache) Delete(symbol string, days int) {
	key := cacheKey(symbol, days)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached series.
func (c *seriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns all cache keys in insertion order.
func (c *seriesCache) Keys() []CachedKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]CachedKey, 0, len(c.order))
	for _, key := range c.order {
		series, ok := c.entries[key]
		if !ok {
			continue
		}
		keys = append(keys, CachedKey{Symbol: series.Symbol, Days: series.RequestedDays})
	}
	return keys
}

// EntriesFor returns copies of every cached series whose symbol matches.
func (c *seriesCache) EntriesFor(symbol string) []*domain.PriceSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*domain.PriceSeries
	for key, series := range c.entries {
		if strings.HasPrefix(key, symbol+"|") {
			out = append(out, series.Clone())
		}
	}
	return out
}

// longestFor returns a copy of the cached series for symbol with the most
// points, or nil when none exists. Used to seed the synthetic base price.
func (c *seriesCache) longestFor(symbol string) *domain.PriceSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *domain.PriceSeries
	for key, series := range c.entries {
		if !strings.HasPrefix(key, symbol+"|") {
			continue
		}
		if best == nil || len(series.Points) > len(best.Points) {
			best = series
		}
	}
	if best == nil {
		return nil
	}
	return best.Clone()
}
