package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/finwatch/dividend-backend/models"
)

func cachedResult(name string) *models.ScrapedResult {
	return &models.ScrapedResult{
		Company: models.Company{Name: name},
		Dividends: []models.DividendEvent{
			{Date: time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC), Amount: "0.24"},
		},
	}
}

func TestDividendCachePutAndGet(t *testing.T) {
	cache := NewDividendCache(time.Minute, 10)

	cache.Put("Apple Inc.", cachedResult("Apple Inc."))

	result, found := cache.Get("Apple Inc.")
	if !found {
		t.Fatal("Expected cache hit after Put")
	}
	if result.Company.Name != "Apple Inc." {
		t.Errorf("Expected cached company name %q, got %q", "Apple Inc.", result.Company.Name)
	}

	if _, found := cache.Get("Microsoft"); found {
		t.Error("Expected cache miss for unknown company")
	}
}

func TestDividendCacheExpiry(t *testing.T) {
	cache := NewDividendCache(20*time.Millisecond, 10)

	cache.Put("Apple Inc.", cachedResult("Apple Inc."))
	time.Sleep(50 * time.Millisecond)

	if _, found := cache.Get("Apple Inc."); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestDividendCacheEvict(t *testing.T) {
	cache := NewDividendCache(time.Minute, 10)

	cache.Put("Apple Inc.", cachedResult("Apple Inc."))
	cache.Put("Microsoft", cachedResult("Microsoft"))

	cache.Evict("Apple Inc.")

	if _, found := cache.Get("Apple Inc."); found {
		t.Error("Expected evicted entry to miss")
	}
	if _, found := cache.Get("Microsoft"); !found {
		t.Error("Expected unrelated entry to survive a single eviction")
	}
}

func TestDividendCacheEvictAll(t *testing.T) {
	cache := NewDividendCache(time.Minute, 10)

	cache.Put("Apple Inc.", cachedResult("Apple Inc."))
	cache.Put("Microsoft", cachedResult("Microsoft"))

	cache.EvictAll()

	if cache.Size() != 0 {
		t.Errorf("Expected empty cache after EvictAll, size %d", cache.Size())
	}
	if _, found := cache.Get("Apple Inc."); found {
		t.Error("Expected all entries gone after EvictAll")
	}
}

func TestDividendCacheBoundedSize(t *testing.T) {
	cache := NewDividendCache(time.Minute, 3)

	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("Company %d", i)
		cache.Put(name, cachedResult(name))
	}

	if cache.Size() > 3 {
		t.Errorf("Expected cache to stay within its size bound, size %d", cache.Size())
	}

	// The most recent insert should always be present
	if _, found := cache.Get("Company 9"); !found {
		t.Error("Expected most recent entry to survive eviction")
	}
}
