// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/olegiv/vetpl-go/internal/metrics"
)

// Throttle reasons reported to metrics.
const (
	ThrottleRate    = "rate"
	ThrottleLockout = "lockout"
)

// LoginThrottleConfig configures a LoginThrottle. Zero fields take the
// values of DefaultLoginThrottleConfig.
type LoginThrottleConfig struct {
	// ClientRate is credential posts per second per client IP.
	ClientRate  float64
	ClientBurst int

	// MaxFailures within Window lock the account.
	MaxFailures int
	Window      time.Duration
	// Lockout is the first lockout. Each further lockout doubles it up to
	// MaxLockout.
	Lockout    time.Duration
	MaxLockout time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// DefaultLoginThrottleConfig returns the production settings.
func DefaultLoginThrottleConfig() LoginThrottleConfig {
	return LoginThrottleConfig{
		ClientRate:  0.5,
		ClientBurst: 5,
		MaxFailures: 5,
		Window:      15 * time.Minute,
		Lockout:     15 * time.Minute,
		MaxLockout:  24 * time.Hour,
	}
}

func (c *LoginThrottleConfig) fill() {
	d := DefaultLoginThrottleConfig()
	if c.ClientRate <= 0 {
		c.ClientRate = d.ClientRate
	}
	if c.ClientBurst <= 0 {
		c.ClientBurst = d.ClientBurst
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = d.MaxFailures
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Lockout <= 0 {
		c.Lockout = d.Lockout
	}
	if c.MaxLockout < c.Lockout {
		c.MaxLockout = max(d.MaxLockout, c.Lockout)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// account is the failure history of one email address.
type account struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	// next yields the length of the next lockout.
	next *backoff.ExponentialBackOff
}

// LoginThrottle slows down credential guessing on the sign-in and
// registration forms. Middleware limits posts per client IP; Fail,
// Locked and Succeed track failed sign-ins per account.
type LoginThrottle struct {
	cfg     LoginThrottleConfig
	clients *limiterCache[string]

	mu       sync.Mutex
	accounts map[string]*account

	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoginThrottle creates a throttle and starts its sweeper. Close stops it.
func NewLoginThrottle(cfg LoginThrottleConfig) *LoginThrottle {
	cfg.fill()
	t := &LoginThrottle{
		cfg:      cfg,
		clients:  newLimiterCache[string](cfg.ClientRate, cfg.ClientBurst),
		accounts: make(map[string]*account),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go t.sweepLoop(10 * time.Minute)
	return t
}

// Close stops the sweeper. It is safe to call more than once.
func (t *LoginThrottle) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t *LoginThrottle) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.Lockout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = t.cfg.MaxLockout
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Locked reports whether email is locked out and for how much longer.
func (t *LoginThrottle) Locked(email string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.accounts[accountKey(email)]
	if !ok {
		return 0, false
	}
	if left := a.lockedUntil.Sub(t.now()); left > 0 {
		return left, true
	}
	return 0, false
}

// Fail records a failed sign-in. When it locks the account, the lockout
// length is returned with true.
func (t *LoginThrottle) Fail(email string) (time.Duration, bool) {
	key := accountKey(email)
	now := t.now()

	t.mu.Lock()
	a, ok := t.accounts[key]
	if !ok {
		a = &account{next: t.newBackOff()}
		t.accounts[key] = a
	}
	if a.failures == 0 || now.Sub(a.windowStart) > t.cfg.Window {
		a.failures = 0
		a.windowStart = now
	}
	a.failures++
	if a.failures < t.cfg.MaxFailures {
		t.mu.Unlock()
		return 0, false
	}

	d := a.next.NextBackOff()
	a.lockedUntil = now.Add(d)
	a.failures = 0
	t.mu.Unlock()

	t.cfg.Logger.Warn("sign-in locked after repeated failures",
		"email", key, "duration", d, "category", "auth")
	t.cfg.Metrics.IncLoginThrottled(ThrottleLockout)
	return d, true
}

// Succeed forgets the failure history of email.
func (t *LoginThrottle) Succeed(email string) {
	t.mu.Lock()
	delete(t.accounts, accountKey(email))
	t.mu.Unlock()
}

func (t *LoginThrottle) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

// sweep drops accounts that are neither locked nor inside their window,
// and resets the client limiters once they pile up.
func (t *LoginThrottle) sweep() {
	now := t.now()

	t.mu.Lock()
	for key, a := range t.accounts {
		if now.After(a.lockedUntil) && now.Sub(a.windowStart) > t.cfg.Window {
			delete(t.accounts, key)
		}
	}
	t.mu.Unlock()

	if t.clients.clearIfExceeds(10000) {
		t.cfg.Logger.Info("reset sign-in rate limiters")
	}
}

// Middleware limits credential posts per client IP with a plain-text 429.
func (t *LoginThrottle) Middleware() func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / t.cfg.ClientRate)))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := ClientIP(r)
			if !t.clients.get(ip).Allow() {
				t.cfg.Logger.Warn("sign-in rate limit exceeded", "ip", ip, "path", r.URL.Path, "category", "auth")
				t.cfg.Metrics.IncLoginThrottled(ThrottleRate)
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too many attempts from your network. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
