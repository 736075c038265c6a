// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the site's periodic jobs on cron: refreshing the
// careers listings cache, purging old events and reloading the GeoIP
// database.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job names.
const (
	JobCareersRefresh = "careers_refresh"
	JobEventsPurge    = "events_purge"
	JobGeoIPReload    = "geoip_reload"
)

// Default schedules.
const (
	DefaultCareersRefreshSchedule = "*/15 * * * *"
	DefaultEventsPurgeSchedule    = "30 3 * * *"
	DefaultGeoIPReloadSchedule    = "0 4 * * 0"
)

// DefaultEventRetention is how long events are kept.
const DefaultEventRetention = 90 * 24 * time.Hour

// jobTimeout bounds a single job run.
const jobTimeout = 2 * time.Minute

// ListingRefresher refreshes cached careers listings.
type ListingRefresher interface {
	Refresh(ctx context.Context) error
}

// EventPurger deletes events older than a retention period.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reloads a file-backed resource.
type Reloader interface {
	Reload() error
}

// Options configures the scheduler. Nil dependencies disable their job.
type Options struct {
	// Registry runs the jobs. Required.
	Registry       *Registry
	Listings       ListingRefresher
	Events         EventPurger
	EventRetention time.Duration
	GeoIP          Reloader
	Logger         *slog.Logger
}

// Scheduler wires the site's jobs into a Registry.
type Scheduler struct {
	registry  *Registry
	listings  ListingRefresher
	events    EventPurger
	retention time.Duration
	geoip     Reloader
	logger    *slog.Logger
}

// New creates a new scheduler instance.
func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EventRetention <= 0 {
		opts.EventRetention = DefaultEventRetention
	}
	return &Scheduler{
		registry:  opts.Registry,
		listings:  opts.Listings,
		events:    opts.Events,
		retention: opts.EventRetention,
		geoip:     opts.GeoIP,
		logger:    opts.Logger,
	}
}

// Jobs returns the jobs enabled by the configured dependencies.
func (s *Scheduler) Jobs() []Job {
	var jobs []Job
	if s.listings != nil {
		jobs = append(jobs, Job{
			Name:            JobCareersRefresh,
			Description:     "Refresh cached job openings and departments",
			DefaultSchedule: DefaultCareersRefreshSchedule,
			Run:             s.refreshListings,
		})
	}
	if s.events != nil {
		jobs = append(jobs, Job{
			Name:            JobEventsPurge,
			Description:     "Delete events past the retention period",
			DefaultSchedule: DefaultEventsPurgeSchedule,
			Run:             s.purgeEvents,
		})
	}
	if s.geoip != nil {
		jobs = append(jobs, Job{
			Name:            JobGeoIPReload,
			Description:     "Reload the GeoIP country database",
			DefaultSchedule: DefaultGeoIPReloadSchedule,
			Run:             func(context.Context) error { return s.geoip.Reload() },
		})
	}
	return jobs
}

// Start adds the enabled jobs to the registry and starts it.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := s.Jobs()
	for _, job := range jobs {
		if err := s.registry.Add(ctx, job); err != nil {
			return err
		}
	}
	s.registry.Start()
	s.logger.Info("scheduler started", "jobs", len(jobs))
	return nil
}

// Stop stops the registry, waiting for running jobs.
func (s *Scheduler) Stop() {
	s.registry.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshListings(ctx context.Context) error {
	return s.listings.Refresh(ctx)
}

func (s *Scheduler) purgeEvents(ctx context.Context) error {
	n, err := s.events.DeleteOldEvents(ctx, s.retention)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged old events", "count", n, "retention", s.retention.String())
	}
	return nil
}
