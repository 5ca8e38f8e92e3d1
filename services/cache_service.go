package services

import (
	"sync"
	"time"

	"github.com/finwatch/dividend-backend/models"
	"github.com/sirupsen/logrus"
)

// cacheEntry is a cached dividend materialization with expiration
type cacheEntry struct {
	Result    *models.ScrapedResult
	ExpiresAt time.Time
}

func (ce *cacheEntry) IsExpired() bool {
	return time.Now().After(ce.ExpiresAt)
}

// DividendCache is the read-through cache in front of the store, keyed by
// company name. Population is explicit in FinanceService; invalidation is
// explicit too: EvictAll at the end of every ingestion cycle, Evict for a
// single name on company deletion. The cache never outlives the store's
// truth by more than the TTL even if an invalidation is missed.
type DividendCache struct {
	cache      map[string]*cacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
}

// NewDividendCache creates a cache with the given TTL and size bound and
// starts its background expiry sweep.
func NewDividendCache(defaultTTL time.Duration, maxSize int) *DividendCache {
	dc := &DividendCache{
		cache:      make(map[string]*cacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
	}

	go dc.cleanupExpired()

	return dc
}

// Get returns the cached dividend result for a company name, if present and fresh.
func (dc *DividendCache) Get(companyName string) (*models.ScrapedResult, bool) {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()

	entry, exists := dc.cache[companyName]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Result, true
}

// Put stores a dividend result under the company's name.
func (dc *DividendCache) Put(companyName string, result *models.ScrapedResult) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()

	if len(dc.cache) >= dc.maxSize {
		dc.evictOldest()
	}

	dc.cache[companyName] = &cacheEntry{
		Result:    result,
		ExpiresAt: time.Now().Add(dc.defaultTTL),
	}
}

// evictOldest removes the entry closest to expiry (simple FIFO-ish eviction)
func (dc *DividendCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range dc.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(dc.cache, oldestKey)
	}
}

// Evict removes a single company's entry, used when that company is deleted.
func (dc *DividendCache) Evict(companyName string) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()

	delete(dc.cache, companyName)
}

// EvictAll drops every entry. The ingestion scheduler calls this after a
// completed refresh cycle so the next read repopulates from the fresh store.
func (dc *DividendCache) EvictAll() {
	dc.mutex.Lock()
	size := len(dc.cache)
	dc.cache = make(map[string]*cacheEntry)
	dc.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":       "DividendCache",
		"evicted_entries": size,
	}).Info("Evicted all dividend cache entries")
}

// Size returns the number of cached entries
func (dc *DividendCache) Size() int {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()

	return len(dc.cache)
}

// cleanupExpired removes expired entries on a fixed sweep interval
func (dc *DividendCache) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		dc.mutex.Lock()
		for key, entry := range dc.cache {
			if entry.IsExpired() {
				delete(dc.cache, key)
			}
		}
		dc.mutex.Unlock()
	}
}
