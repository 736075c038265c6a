// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/metrics"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestThrottle(t *testing.T, cfg LoginThrottleConfig) (*LoginThrottle, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	lt := NewLoginThrottle(cfg)
	lt.now = clock.now
	t.Cleanup(lt.Close)
	return lt, clock
}

func TestLoginThrottleDefaults(t *testing.T) {
	lt, _ := newTestThrottle(t, LoginThrottleConfig{})
	assert.Equal(t, DefaultLoginThrottleConfig().MaxFailures, lt.cfg.MaxFailures)
	assert.Equal(t, 15*time.Minute, lt.cfg.Lockout)
	assert.Equal(t, 24*time.Hour, lt.cfg.MaxLockout)
	assert.NotNil(t, lt.cfg.Logger)

	lt.Close()
	lt.Close()
}

func TestLoginThrottleLocksAfterMaxFailures(t *testing.T) {
	m := metrics.New()
	lt, clock := newTestThrottle(t, LoginThrottleConfig{MaxFailures: 3, Lockout: time.Minute, Metrics: m})
	email := "manager@company.com"

	for i := 0; i < 2; i++ {
		_, locked := lt.Fail(email)
		require.False(t, locked, "failure %d", i+1)
	}
	_, locked := lt.Locked(email)
	assert.False(t, locked)

	d, locked := lt.Fail(email)
	require.True(t, locked)
	assert.Equal(t, time.Minute, d)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginThrottledTotal.WithLabelValues(ThrottleLockout)))

	left, locked := lt.Locked(email)
	assert.True(t, locked)
	assert.Equal(t, time.Minute, left)

	clock.advance(61 * time.Second)
	_, locked = lt.Locked(email)
	assert.False(t, locked, "lockout expires")
}

func TestLoginThrottleLockoutDoubles(t *testing.T) {
	lt, clock := newTestThrottle(t, LoginThrottleConfig{MaxFailures: 2, Lockout: time.Minute, MaxLockout: 3 * time.Minute})
	email := "user@company.com"

	var got []time.Duration
	for range 4 {
		lt.Fail(email)
		d, locked := lt.Fail(email)
		require.True(t, locked)
		got = append(got, d)
		clock.advance(d + time.Second)
	}
	assert.Equal(t, []time.Duration{time.Minute, 2 * time.Minute, 3 * time.Minute, 3 * time.Minute}, got)
}

func TestLoginThrottleWindow(t *testing.T) {
	lt, clock := newTestThrottle(t, LoginThrottleConfig{MaxFailures: 2, Window: time.Minute})
	email := "user@company.com"

	lt.Fail(email)
	clock.advance(2 * time.Minute)
	_, locked := lt.Fail(email)
	assert.False(t, locked, "failures outside the window start over")

	_, locked = lt.Fail(email)
	assert.True(t, locked)
}

func TestLoginThrottleSucceedClears(t *testing.T) {
	lt, _ := newTestThrottle(t, LoginThrottleConfig{MaxFailures: 2})
	email := "user@company.com"

	lt.Fail(email)
	lt.Succeed(email)
	_, locked := lt.Fail(email)
	assert.False(t, locked)
}

func TestLoginThrottleNormalizesEmail(t *testing.T) {
	lt, _ := newTestThrottle(t, LoginThrottleConfig{MaxFailures: 2})

	lt.Fail("Admin@Company.com ")
	_, locked := lt.Fail("admin@company.com")
	require.True(t, locked, "differently cased emails count against one account")

	_, locked = lt.Locked("ADMIN@company.com")
	assert.True(t, locked)
}

func TestLoginThrottleSweep(t *testing.T) {
	lt, clock := newTestThrottle(t, LoginThrottleConfig{MaxFailures: 2, Window: time.Minute, Lockout: time.Minute})

	lt.Fail("stale@company.com")
	lt.Fail("locked@company.com")
	lt.Fail("locked@company.com")

	clock.advance(90 * time.Second)
	lt.Fail("fresh@company.com")
	lt.sweep()

	lt.mu.Lock()
	defer lt.mu.Unlock()
	assert.NotContains(t, lt.accounts, "stale@company.com")
	assert.NotContains(t, lt.accounts, "locked@company.com", "expired lockout outside its window")
	assert.Contains(t, lt.accounts, "fresh@company.com")
}

func TestLoginThrottleMiddleware(t *testing.T) {
	m := metrics.New()
	lt, _ := newTestThrottle(t, LoginThrottleConfig{ClientRate: 0.25, ClientBurst: 1, Metrics: m})
	wrapped := lt.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost).Code)

	rec := do(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many attempts")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginThrottledTotal.WithLabelValues(ThrottleRate)))

	assert.Equal(t, http.StatusOK, do(http.MethodGet).Code, "reads are never limited")
}
