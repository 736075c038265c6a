// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/vetpl-go/internal/store"
)

// Source is the owner recorded with schedule overrides.
const Source = "core"

var (
	// ErrJobNotFound is returned for names that were never added.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned when a manual run overlaps a running one.
	ErrJobRunning = errors.New("job is already running")
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule parses a standard five-field cron expression or descriptor.
func ValidateSchedule(expr string) error {
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Job is one periodic task.
type Job struct {
	Name            string
	Description     string
	DefaultSchedule string
	Run             func(ctx context.Context) error
}

// JobInfo is a snapshot of a job for the admin page.
type JobInfo struct {
	Name            string
	Description     string
	DefaultSchedule string
	Schedule        string
	Overridden      bool
	Running         bool
	LastRun         time.Time
	LastDuration    time.Duration
	LastError       string
	NextRun         time.Time
}

type entry struct {
	job      Job
	schedule string
	id       cron.EntryID

	running bool
	lastRun time.Time
	lastDur time.Duration
	lastErr error
}

// Registry owns the cron instance of the site's jobs, their schedule
// overrides persisted in the database, and the outcome of their last run.
// A job never runs twice at once.
type Registry struct {
	cron    *cron.Cron
	queries *store.Queries
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry. Runs are bounded by jobTimeout.
func NewRegistry(db *sql.DB, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cron:    cron.New(cron.WithParser(scheduleParser), cron.WithLogger(cronLogger{logger})),
		queries: store.New(db),
		logger:  logger,
		timeout: jobTimeout,
		entries: make(map[string]*entry),
	}
}

// Add schedules job under its stored override, or its default schedule
// when there is none or the override no longer parses.
func (r *Registry) Add(ctx context.Context, job Job) error {
	if err := ValidateSchedule(job.DefaultSchedule); err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}

	schedule := job.DefaultSchedule
	override, err := r.queries.GetSchedulerOverride(ctx, store.SchedulerOverrideKey{Source: Source, Name: job.Name})
	switch {
	case err == nil && ValidateSchedule(override) == nil:
		schedule = override
	case err == nil:
		r.logger.Warn("ignoring unparsable schedule override", "job", job.Name, "schedule", override)
	case !errors.Is(err, sql.ErrNoRows):
		r.logger.Warn("reading schedule override failed", "job", job.Name, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[job.Name]; dup {
		return fmt.Errorf("job %s added twice", job.Name)
	}
	e := &entry{job: job, schedule: schedule}
	if e.id, err = r.cron.AddFunc(schedule, r.scheduled(e)); err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	r.entries[job.Name] = e
	r.logger.Debug("scheduled job added", "job", job.Name, "schedule", schedule)
	return nil
}

// Start starts cron.
func (r *Registry) Start() { r.cron.Start() }

// Stop stops cron and waits for running jobs.
func (r *Registry) Stop() { <-r.cron.Stop().Done() }

// scheduled is the cron callback of e.
func (r *Registry) scheduled(e *entry) func() {
	return func() {
		err := r.run(context.Background(), e)
		switch {
		case errors.Is(err, ErrJobRunning):
			r.logger.Info("skipping scheduled run, previous run still active", "job", e.job.Name)
		case err != nil:
			r.logger.Error("scheduled job failed", "job", e.job.Name, "error", err)
		}
	}
}

func (r *Registry) run(ctx context.Context, e *entry) error {
	r.mu.Lock()
	if e.running {
		r.mu.Unlock()
		return ErrJobRunning
	}
	e.running = true
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	start := time.Now()
	err := e.job.Run(ctx)

	r.mu.Lock()
	e.running = false
	e.lastRun = start
	e.lastDur = time.Since(start)
	e.lastErr = err
	r.mu.Unlock()
	return err
}

// Trigger runs the named job now and returns its error.
func (r *Registry) Trigger(ctx context.Context, name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	r.logger.Info("running job on demand", "job", name)
	return r.run(ctx, e)
}

// List returns every job sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobInfo, 0, len(r.entries))
	for _, e := range r.entries {
		info := JobInfo{
			Name:            e.job.Name,
			Description:     e.job.Description,
			DefaultSchedule: e.job.DefaultSchedule,
			Schedule:        e.schedule,
			Overridden:      e.schedule != e.job.DefaultSchedule,
			Running:         e.running,
			LastRun:         e.lastRun,
			LastDuration:    e.lastDur,
			NextRun:         r.cron.Entry(e.id).Next,
		}
		if e.lastErr != nil {
			info.LastError = e.lastErr.Error()
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// UpdateSchedule moves the named job to schedule and stores the override.
func (r *Registry) UpdateSchedule(ctx context.Context, name, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	err := r.queries.UpsertSchedulerOverride(ctx, store.UpsertSchedulerOverrideParams{
		Source:           Source,
		Name:             name,
		OverrideSchedule: schedule,
	})
	if err != nil {
		return fmt.Errorf("storing schedule override: %w", err)
	}
	if err := r.reschedule(e, schedule); err != nil {
		return err
	}
	r.logger.Info("job schedule updated", "job", name, "schedule", schedule)
	return nil
}

// ResetSchedule drops the override of the named job.
func (r *Registry) ResetSchedule(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	err := r.queries.DeleteSchedulerOverride(ctx, store.SchedulerOverrideKey{Source: Source, Name: name})
	if err != nil {
		return fmt.Errorf("deleting schedule override: %w", err)
	}
	if e.schedule == e.job.DefaultSchedule {
		return nil
	}
	if err := r.reschedule(e, e.job.DefaultSchedule); err != nil {
		return err
	}
	r.logger.Info("job schedule reset", "job", name, "schedule", e.schedule)
	return nil
}

// reschedule swaps the cron entry of e. r.mu must be held.
func (r *Registry) reschedule(e *entry, schedule string) error {
	id, err := r.cron.AddFunc(schedule, r.scheduled(e))
	if err != nil {
		return fmt.Errorf("job %s: %w", e.job.Name, err)
	}
	r.cron.Remove(e.id)
	e.id = id
	e.schedule = schedule
	return nil
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
