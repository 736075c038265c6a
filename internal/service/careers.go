// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/cache"
	"github.com/olegiv/vetpl-go/internal/model"
)

// Cache keys of the careers listings.
const (
	JobsCacheKey        = "careers:jobs"
	DepartmentsCacheKey = "careers:departments"
)

// DefaultListingTTL is how long a fetched listing is served from cache.
const DefaultListingTTL = 15 * time.Minute

// ErrJobNotFound is returned by Job for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// CareersSource fetches listings from the careers backend.
type CareersSource interface {
	JobOpenings(ctx context.Context) apiclient.Listing[model.Job]
	Departments(ctx context.Context) apiclient.Listing[string]
}

// CareersService serves job openings and departments through the cache.
// Only genuine backend answers are cached; fallback data is returned but
// never stored, so the next request tries the backend again.
type CareersService struct {
	source CareersSource
	jobs   *cache.TypedCache[[]model.Job]
	depts  *cache.TypedCache[[]string]
	logger *slog.Logger
}

// NewCareersService creates a CareersService. A zero ttl uses DefaultListingTTL.
func NewCareersService(source CareersSource, c cache.Cacher, ttl time.Duration, logger *slog.Logger) *CareersService {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CareersService{
		source: source,
		jobs:   cache.NewTypedCache[[]model.Job](c, ttl),
		depts:  cache.NewTypedCache[[]string](c, ttl),
		logger: logger,
	}
}

// Jobs returns the open positions.
func (s *CareersService) Jobs(ctx context.Context) apiclient.Listing[model.Job] {
	if items, ok := s.jobs.Get(ctx, JobsCacheKey); ok {
		return apiclient.Listing[model.Job]{Items: *items}
	}
	l := s.source.JobOpenings(ctx)
	if !l.Fallback {
		s.store(func() error { return s.jobs.Set(ctx, JobsCacheKey, &l.Items) })
	}
	return l
}

// Departments returns the departments with open positions.
func (s *CareersService) Departments(ctx context.Context) apiclient.Listing[string] {
	if items, ok := s.depts.Get(ctx, DepartmentsCacheKey); ok {
		return apiclient.Listing[string]{Items: *items}
	}
	l := s.source.Departments(ctx)
	if !l.Fallback {
		s.store(func() error { return s.depts.Set(ctx, DepartmentsCacheKey, &l.Items) })
	}
	return l
}

// Job returns one open position by id, and whether it came from fallback data.
func (s *CareersService) Job(ctx context.Context, id int) (model.Job, bool, error) {
	l := s.Jobs(ctx)
	for _, j := range l.Items {
		if j.ID == id {
			return j, l.Fallback, nil
		}
	}
	return model.Job{}, l.Fallback, ErrJobNotFound
}

// Refresh re-fetches both listings into the cache. A fallback answer
// leaves the cached listing in place and returns the cause.
func (s *CareersService) Refresh(ctx context.Context) error {
	jobs := s.source.JobOpenings(ctx)
	depts := s.source.Departments(ctx)

	var errs []error
	if jobs.Fallback {
		errs = append(errs, jobs.Cause)
	} else if err := s.jobs.Set(ctx, JobsCacheKey, &jobs.Items); err != nil {
		errs = append(errs, err)
	}
	if depts.Fallback {
		errs = append(errs, depts.Cause)
	} else if err := s.depts.Set(ctx, DepartmentsCacheKey, &depts.Items); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Debug("careers listings refreshed", "jobs", len(jobs.Items), "departments", len(depts.Items))
	return nil
}

// Invalidate drops both cached listings.
func (s *CareersService) Invalidate(ctx context.Context) {
	_ = s.jobs.Delete(ctx, JobsCacheKey)
	_ = s.depts.Delete(ctx, DepartmentsCacheKey)
}

func (s *CareersService) store(set func() error) {
	if err := set(); err != nil {
		s.logger.Warn("failed to cache careers listing", "error", err, "category", "cache")
	}
}
