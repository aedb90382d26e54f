package rates

import (
	"strings"
	"sync"
	"time"

	"avdeck/internal/dataprocessing"
)

type cacheEntry struct {
	rates     dataprocessing.ExchangeRates
	expiresAt time.Time
}

// Cache keeps fetched rate tables per base currency until they expire.
// A zero TTL disables caching.
type Cache struct {
	entries map[string]cacheEntry
	mutex   sync.RWMutex
	ttl     time.Duration
	now     func() time.Time

	hits   int64
	misses int64
}

// NewCache creates a cache with the given TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached table for base if it has not expired
func (c *Cache) Get(base string) (dataprocessing.ExchangeRates, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[strings.ToUpper(base)]
	if !ok || !c.now().Before(entry.expiresAt) {
		c.misses++
		return dataprocessing.ExchangeRates{}, false
	}
	c.hits++
	return entry.rates, true
}

// Set stores a table under its base currency
func (c *Cache) Set(rates dataprocessing.ExchangeRates) {
	if c.ttl <= 0 {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[strings.ToUpper(rates.Reference)] = cacheEntry{
		rates:     rates,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Stats returns hit and miss counts
func (c *Cache) Stats() (hits, misses int64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.hits, c.misses
}
