package cache

import (
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryCache()

	if err := cache.Set("k", map[string]int{"n": 1}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got map[string]int
	if err := cache.Get("k", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["n"] != 1 {
		t.Errorf("Got unexpected value: %v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()

	cache.Set("short", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	var got string
	if err := cache.Get("short", &got); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	cache := NewMemoryCache()

	cache.Set("task:1", "a", 0)
	cache.Set("task:2", "b", 0)
	cache.Set("other", "c", 0)

	if err := cache.DeletePattern("task:*"); err != nil {
		t.Fatalf("DeletePattern failed: %v", err)
	}

	var got string
	if err := cache.Get("task:1", &got); err != ErrCacheMiss {
		t.Errorf("Expected task keys gone, got %v", err)
	}
	if err := cache.Get("other", &got); err != nil {
		t.Errorf("Expected other key to survive, got %v", err)
	}
}

func TestMemoryCacheStats(t *testing.T) {
	cache := NewMemoryCache()

	cache.Set("k", "v", 0)
	var got string
	cache.Get("k", &got)
	cache.Get("missing", &got)

	stats := cache.Stats()
	if stats["entries"].(int) != 1 {
		t.Errorf("Expected 1 entry, got %v", stats["entries"])
	}
	if stats["hits"].(int64) != 1 {
		t.Errorf("Expected 1 hit, got %v", stats["hits"])
	}
	if stats["misses"].(int64) != 1 {
		t.Errorf("Expected 1 miss, got %v", stats["misses"])
	}
}
