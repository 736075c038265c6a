// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// newTestRedis connects to VETPL_TEST_REDIS_URL under a per-test prefix,
// or skips.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	url := os.Getenv("VETPL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: VETPL_TEST_REDIS_URL not set")
	}
	prefix := "vetpl-test:" + t.Name() + ":" + strconv.FormatInt(time.Now().UnixNano(), 36) + ":"
	c, err := NewRedisCache(context.Background(), RedisCacheOptions{URL: url, Prefix: prefix, DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "careers:jobs"); err != ErrCacheMiss {
		t.Fatalf("Get on empty = %v, want ErrCacheMiss", err)
	}
	if err := c.Set(ctx, "careers:jobs", []byte(`[{"id":1}]`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "careers:jobs")
	if err != nil || string(got) != `[{"id":1}]` {
		t.Fatalf("Get = %q, %v", got, err)
	}
	ttl := c.client.TTL(ctx, c.key("careers:jobs")).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("zero TTL stored with %v, want the one-minute default", ttl)
	}

	if err := c.Delete(ctx, "careers:jobs"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "careers:jobs"); err != ErrCacheMiss {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("v"), 50*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	if _, err := c.Get(ctx, "short"); err != ErrCacheMiss {
		t.Errorf("expired key: got %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_ClaimOnce(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := c.Claim(ctx, "form:01J", []byte("1"), time.Minute); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := winners.Load(); n != 1 {
		t.Errorf("%d callers won the claim, want exactly 1", n)
	}

	_ = c.Delete(ctx, "form:01J")
	if ok, err := c.Claim(ctx, "form:01J", []byte("2"), time.Minute); err != nil || !ok {
		t.Errorf("Claim after release = %v, %v; want true, nil", ok, err)
	}
}

func TestRedisCache_PrefixIsolation(t *testing.T) {
	a := newTestRedis(t)
	b := newTestRedis(t)
	ctx := context.Background()

	_ = a.Set(ctx, "careers:departments", []byte("a"), 0)
	if _, err := b.Get(ctx, "careers:departments"); err != ErrCacheMiss {
		t.Errorf("key leaked across prefixes: %v", err)
	}
}

func TestRedisCache_Close(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrCacheClosed {
		t.Errorf("Get after Close = %v, want ErrCacheClosed", err)
	}
	if _, err := c.Claim(ctx, "k", nil, 0); err != ErrCacheClosed {
		t.Errorf("Claim after Close = %v, want ErrCacheClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	ctx := context.Background()
	if _, err := NewRedisCache(ctx, RedisCacheOptions{}); err == nil {
		t.Error("expected error with empty URL")
	}
	if _, err := NewRedisCache(ctx, RedisCacheOptions{URL: "invalid-url"}); err == nil {
		t.Error("expected error with invalid URL")
	}
}
