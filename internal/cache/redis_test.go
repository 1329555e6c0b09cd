package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) *RedisCache {
	mr := miniredis.RunT(t)

	config := &CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return NewRedisCache(config)
}

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}
}

func TestRedisCacheSetGet(t *testing.T) {
	cache := setupTestRedis(t)
	defer cache.Close()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := cache.Set("key1", payload{Name: "tasks", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := cache.Get("key1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "tasks" || got.Count != 3 {
		t.Errorf("Got unexpected value: %+v", got)
	}
}

func TestRedisCacheGetMiss(t *testing.T) {
	cache := setupTestRedis(t)
	defer cache.Close()

	var got string
	if err := cache.Get("missing", &got); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisCacheDelete(t *testing.T) {
	cache := setupTestRedis(t)
	defer cache.Close()

	cache.Set("doomed", "value", time.Minute)
	if err := cache.Delete("doomed"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var got string
	if err := cache.Get("doomed", &got); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestRedisCacheDeletePattern(t *testing.T) {
	cache := setupTestRedis(t)
	defer cache.Close()

	cache.Set("user_tasks:u1:all", "a", time.Minute)
	cache.Set("user_tasks:u1:pending", "b", time.Minute)
	cache.Set("user_tasks:u2:all", "c", time.Minute)

	if err := cache.DeletePattern("user_tasks:u1:*"); err != nil {
		t.Fatalf("DeletePattern failed: %v", err)
	}

	var got string
	if err := cache.Get("user_tasks:u1:all", &got); err != ErrCacheMiss {
		t.Errorf("Expected u1 keys gone, got %v", err)
	}
	if err := cache.Get("user_tasks:u2:all", &got); err != nil {
		t.Errorf("Expected u2 key to survive, got %v", err)
	}
}

func TestRedisCacheHealth(t *testing.T) {
	cache := setupTestRedis(t)
	defer cache.Close()

	if err := cache.Health(); err != nil {
		t.Errorf("Expected healthy cache, got %v", err)
	}
}
