// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMemory(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: ttl})
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL: time.Hour,
		MaxSize:    100,
	})
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	if err := cache.Set(ctx, "careers:jobs", []byte("[]"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := cache.Get(ctx, "careers:jobs")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "[]" {
		t.Errorf("Get = %q, want []", val)
	}

	if err := cache.Delete(ctx, "careers:jobs"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cache.Get(ctx, "careers:jobs"); err != ErrCacheMiss {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := newTestMemory(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	_ = cache.Set(ctx, "short", []byte("v"), 20*time.Millisecond)
	_ = cache.Set(ctx, "long", []byte("v"), time.Hour)

	time.Sleep(40 * time.Millisecond)

	if _, err := cache.Get(ctx, "short"); err != ErrCacheMiss {
		t.Errorf("expired key: got %v, want ErrCacheMiss", err)
	}
	if _, err := cache.Get(ctx, "long"); err != nil {
		t.Errorf("long-lived key: %v", err)
	}
}

func TestMemoryCache_Claim(t *testing.T) {
	cache := newTestMemory(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	ok, err := cache.Claim(ctx, "form:01J", []byte("1"), 0)
	if err != nil || !ok {
		t.Fatalf("first Claim = %v, %v; want true, nil", ok, err)
	}

	ok, err = cache.Claim(ctx, "form:01J", []byte("2"), 0)
	if err != nil || ok {
		t.Fatalf("second Claim = %v, %v; want false, nil", ok, err)
	}

	val, _ := cache.Get(ctx, "form:01J")
	if string(val) != "1" {
		t.Errorf("losing Claim overwrote the value: %q", val)
	}
}

func TestMemoryCache_ClaimAfterExpiry(t *testing.T) {
	cache := newTestMemory(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	_, _ = cache.Claim(ctx, "k", []byte("1"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	ok, err := cache.Claim(ctx, "k", []byte("2"), time.Hour)
	if err != nil || !ok {
		t.Fatalf("Claim of expired key = %v, %v; want true, nil", ok, err)
	}
}

func TestMemoryCache_ClaimConcurrent(t *testing.T) {
	cache := newTestMemory(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := cache.Claim(ctx, "once", []byte("x"), 0); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := winners.Load(); n != 1 {
		t.Errorf("%d goroutines won the claim, want exactly 1", n)
	}
}

func TestMemoryCache_MaxSizeDropsExpired(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 2})
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	_ = cache.Set(ctx, "form:a", []byte("1"), 20*time.Millisecond)
	_ = cache.Set(ctx, "form:b", []byte("1"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_ = cache.Set(ctx, "careers:jobs", []byte("[]"), 0)
	if n := cache.count(); n != 1 {
		t.Errorf("count = %d after reaching MaxSize, want 1", n)
	}
}

func TestMemoryCache_ValueCopy(t *testing.T) {
	cache := newTestMemory(time.Hour)
	defer func() { _ = cache.Close() }()
	ctx := context.Background()

	original := []byte("original")
	_ = cache.Set(ctx, "key", original, 0)
	original[0] = 'X'

	val, _ := cache.Get(ctx, "key")
	if string(val) != "original" {
		t.Errorf("cache didn't copy on set: %s", val)
	}

	val[0] = 'Y'
	val2, _ := cache.Get(ctx, "key")
	if string(val2) != "original" {
		t.Errorf("cache didn't copy on get: %s", val2)
	}
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Second,
	})
	ctx := context.Background()
	_ = cache.Set(ctx, "key", []byte("value"), 0)

	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := cache.Get(ctx, "key"); err != ErrCacheClosed {
		t.Errorf("Get after Close = %v, want ErrCacheClosed", err)
	}
	if _, err := cache.Claim(ctx, "k", nil, 0); err != ErrCacheClosed {
		t.Errorf("Claim after Close = %v, want ErrCacheClosed", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
