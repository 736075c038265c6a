// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/olegiv/vetpl-go/internal/cache"
	"github.com/olegiv/vetpl-go/internal/metrics"
)

var (
	// ErrSubmitting is returned while the same owner's submission of the
	// same form kind is still in flight.
	ErrSubmitting = errors.New("form submission already in progress")
	// ErrDuplicateSubmission is returned when an idempotency key was
	// already used.
	ErrDuplicateSubmission = errors.New("form already submitted")
)

// SuccessMessage is shown after a form was accepted.
const SuccessMessage = "Form submitted successfully! Our team will contact you within 24 hours."

// DefaultKeyTTL is how long a used idempotency key is remembered.
const DefaultKeyTTL = 24 * time.Hour

// SubmitFunc delivers a validated payload.
type SubmitFunc func(ctx context.Context, kind Kind, p Payload) error

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Claims stores used idempotency keys. Nil disables the check.
	Claims  cache.Cacher
	KeyTTL  time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Engine validates forms and delivers each accepted form exactly once.
type Engine struct {
	claims  cache.Cacher
	keyTTL  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.KeyTTL <= 0 {
		opts.KeyTTL = DefaultKeyTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		claims:   opts.Claims,
		keyTTL:   opts.KeyTTL,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		inflight: make(map[string]struct{}),
	}
}

// NewKey returns a fresh idempotency key to render into a form.
func NewKey() string {
	return ulid.Make().String()
}

// Submit validates f and, when it is valid, calls submit exactly once with
// its payload. owner scopes the single-flight guard, typically the session
// key or client IP. A failed submit releases the idempotency key so the
// visitor can retry.
func (e *Engine) Submit(ctx context.Context, owner string, f *Form, submit SubmitFunc) error {
	kind := string(f.Kind())

	if f.honeypot != "" {
		e.logger.Info("honeypot triggered", "kind", kind, "owner", owner)
		e.metrics.IncFormSubmission(kind, "spam")
		return nil
	}

	if err := f.Validate(); err != nil {
		e.metrics.IncFormSubmission(kind, "invalid")
		return err
	}

	flight := owner + ":" + kind
	if !e.begin(flight) {
		e.metrics.IncFormSubmission(kind, "busy")
		return ErrSubmitting
	}
	defer e.end(flight)

	claimed, err := e.claim(ctx, f.Key)
	if err != nil {
		return err
	}
	if !claimed {
		e.metrics.IncFormSubmission(kind, "duplicate")
		return ErrDuplicateSubmission
	}

	if err := submit(ctx, f.Kind(), f.Payload()); err != nil {
		e.release(f.Key)
		e.metrics.IncFormSubmission(kind, "error")
		return fmt.Errorf("submit %s form: %w", kind, err)
	}

	e.metrics.IncFormSubmission(kind, "ok")
	e.logger.Info("form submitted", "kind", kind, "category", "form")
	return nil
}

// Submitting reports whether owner has a submission of kind in flight.
func (e *Engine) Submitting(owner string, kind Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[owner+":"+string(kind)]
	return ok
}

func (e *Engine) begin(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) end(key string) {
	e.mu.Lock()
	delete(e.inflight, key)
	e.mu.Unlock()
}

func (e *Engine) claim(ctx context.Context, key string) (bool, error) {
	if key == "" || e.claims == nil {
		return true, nil
	}
	ok, err := e.claims.Claim(ctx, claimKey(key), []byte("1"), e.keyTTL)
	if err != nil {
		// A broken cache must not block lead capture.
		e.logger.Warn("idempotency check unavailable", "error", err, "category", "cache")
		return true, nil
	}
	return ok, nil
}

func (e *Engine) release(key string) {
	if key == "" || e.claims == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = e.claims.Delete(ctx, claimKey(key))
}

func claimKey(key string) string { return "form:" + key }
