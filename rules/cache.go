package rules

import (
	"time"

	"github.com/liamcoop/scid/sandcontrol"
)

// FactorIndex groups active rules by the factor they contribute to
type FactorIndex map[sandcontrol.Factor][]*Rule

// NewFactorIndex groups rules by factor, keeping their order
func NewFactorIndex(rules []*Rule) FactorIndex {
	idx := make(FactorIndex, len(sandcontrol.Factors))
	for _, r := range rules {
		idx[r.Factor] = append(idx[r.Factor], r)
	}
	return idx
}

// RulesCache caches the factor index so evaluations skip the store
type RulesCache interface {
	// Get returns the cached index, or nil on a miss or after expiry
	Get() FactorIndex

	// Set stores the active rules
	Set(rules []*Rule)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Zero means no expiry; only rule mutations invalidate.
	TTL time.Duration
}

// DefaultCacheConfig never expires entries
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}
