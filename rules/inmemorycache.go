package rules

import (
	"sync"
	"time"
)

// InMemoryRulesCache is a RulesCache safe for concurrent use
type InMemoryRulesCache struct {
	index    FactorIndex
	cachedAt time.Time
	config   CacheConfig
	mu       sync.RWMutex
	isValid  bool
}

// NewInMemoryRulesCache creates an empty cache
func NewInMemoryRulesCache(config CacheConfig) *InMemoryRulesCache {
	return &InMemoryRulesCache{config: config}
}

// Get returns a copy of the cached index, or nil if invalid or expired
func (c *InMemoryRulesCache) Get() FactorIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fresh() {
		return nil
	}

	out := make(FactorIndex, len(c.index))
	for f, rules := range c.index {
		out[f] = append([]*Rule(nil), rules...)
	}
	return out
}

// Set indexes and stores the rules
func (c *InMemoryRulesCache) Set(rules []*Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = NewFactorIndex(rules)
	c.cachedAt = time.Now()
	c.isValid = true
}

// Invalidate clears the cache
func (c *InMemoryRulesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isValid = false
	c.index = nil
}

// IsValid returns true if cache contains unexpired data
func (c *InMemoryRulesCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fresh()
}

// fresh must be called with mu held
func (c *InMemoryRulesCache) fresh() bool {
	if !c.isValid {
		return false
	}
	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return false
	}
	return true
}
