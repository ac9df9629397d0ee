//go:build integration

package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shelfapi/shelf/internal/cache"
	"github.com/shelfapi/shelf/internal/testutil"
)

func newRedisCache(t *testing.T) *cache.Cache {
	t.Helper()

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	cacheClient, err := cache.New(ctx, redisURL, cache.Options{KeyPrefix: "shelf-test:"})
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = cacheClient.Close() })

	if err := testutil.FlushRedis(ctx, cacheClient.Client()); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
	return cacheClient
}

// TestUserRateLimitConcurrency verifies rate limiting under concurrent load.
func TestUserRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()
	cacheClient := newRedisCache(t)

	const (
		userID = int64(4242)
		rpm    = 10 // Low limit to trigger easily
		burst  = 5
	)

	var allowed, rejected int64

	// 20 concurrent goroutines, each making 3 requests
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := cacheClient.CheckUserRateLimit(ctx, userID, rpm, burst)
				if err != nil {
					t.Errorf("CheckUserRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}

	wg.Wait()

	t.Logf("Concurrency test: %d allowed, %d rejected", allowed, rejected)

	if allowed > int64(burst+rpm) {
		t.Errorf("Too many requests allowed: %d (expected <= %d)", allowed, burst+rpm)
	}
	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}

// TestIPRateLimitConcurrency verifies IP-based rate limiting concurrency.
func TestIPRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()
	cacheClient := newRedisCache(t)

	const (
		testIP = "192.168.1.100"
		rps    = 1
		burst  = 5
	)

	var allowed, rejected int64
	var wg sync.WaitGroup

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := cacheClient.CheckIPRateLimit(ctx, testIP, rps, burst)
			if err != nil {
				t.Errorf("CheckIPRateLimit error: %v", err)
				return
			}
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}

	wg.Wait()

	t.Logf("IP rate limit: %d allowed, %d rejected", allowed, rejected)

	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}
