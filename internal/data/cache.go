package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/montecarlo"
)

// DefaultResultTTL is how long a finished run stays retrievable by id.
const DefaultResultTTL = 30 * time.Minute

// CacheEntry represents a cached simulation result
type CacheEntry struct {
	Result    *montecarlo.Result
	ExpiresAt time.Time
}

// ResultCache keeps recent simulation results in memory so that their
// terminal balances and paths can be fetched after the summary was returned.
//
// Entries live only in this process and are lost on restart.
type ResultCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewResultCache returns an empty cache. A non-positive ttl uses DefaultResultTTL.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached result if available and not expired
func (c *ResultCache) Get(key string) (*montecarlo.Result, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Result, true
}

// Set stores a result in the cache
func (c *ResultCache) Set(key string, res *montecarlo.Result) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Result:    res,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *ResultCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Prune drops expired entries and returns how many were removed.
func (c *ResultCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
			removed++
		}
	}
	return removed
}

// RunCleanup prunes expired entries every interval until ctx is done.
func (c *ResultCache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

// ResultKey derives a stable id from a resolved configuration. The same
// parameters and seed always produce the same ensemble, so they share an id.
// Workers is left out because it does not change the output.
func ResultKey(cfg model.SimulationConfig) string {
	keyStr := fmt.Sprintf("%g:%g:%g:%g:%g:%d:%d:%d",
		cfg.StartingBalance,
		cfg.MeanReturn,
		cfg.StddevReturn,
		cfg.RiskPerTrade,
		cfg.FeeAdjustment,
		cfg.NumWeeks,
		cfg.NumSimulations,
		cfg.Seed,
	)

	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:8])
}
