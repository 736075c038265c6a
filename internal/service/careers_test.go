// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/cache"
	"github.com/olegiv/vetpl-go/internal/model"
)

type fakeCareers struct {
	jobs     []model.Job
	depts    []string
	down     bool
	jobCalls int
}

var errBackendDown = errors.New("backend down")

func (f *fakeCareers) JobOpenings(context.Context) apiclient.Listing[model.Job] {
	f.jobCalls++
	if f.down {
		return apiclient.Listing[model.Job]{Items: []model.Job{{ID: 1, Title: "Fallback"}}, Fallback: true, Cause: errBackendDown}
	}
	return apiclient.Listing[model.Job]{Items: f.jobs}
}

func (f *fakeCareers) Departments(context.Context) apiclient.Listing[string] {
	if f.down {
		return apiclient.Listing[string]{Items: []string{"Engineering"}, Fallback: true, Cause: errBackendDown}
	}
	return apiclient.Listing[string]{Items: f.depts}
}

func newCareers(t *testing.T, src CareersSource) *CareersService {
	t.Helper()
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = mem.Close() })
	return NewCareersService(src, mem, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCareersJobsCached(t *testing.T) {
	src := &fakeCareers{jobs: []model.Job{{ID: 7, Title: "Go Engineer"}}}
	svc := newCareers(t, src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l := svc.Jobs(ctx)
		require.Len(t, l.Items, 1)
		assert.False(t, l.Fallback)
	}
	assert.Equal(t, 1, src.jobCalls)

	j, fallback, err := svc.Job(ctx, 7)
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, "Go Engineer", j.Title)

	_, _, err = svc.Job(ctx, 99)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCareersFallbackNotCached(t *testing.T) {
	src := &fakeCareers{down: true}
	svc := newCareers(t, src)
	ctx := context.Background()

	l := svc.Jobs(ctx)
	assert.True(t, l.Fallback)
	assert.ErrorIs(t, l.Cause, errBackendDown)

	src.down = false
	src.jobs = []model.Job{}
	l = svc.Jobs(ctx)
	assert.False(t, l.Fallback, "backend recovery is visible immediately")
	assert.Empty(t, l.Items)
	assert.Equal(t, 2, src.jobCalls)
}

func TestCareersRefresh(t *testing.T) {
	src := &fakeCareers{jobs: []model.Job{{ID: 1, Title: "Old"}}, depts: []string{"Design"}}
	svc := newCareers(t, src)
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, "Old", svc.Jobs(ctx).Items[0].Title)

	src.jobs = []model.Job{{ID: 1, Title: "New"}}
	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, "New", svc.Jobs(ctx).Items[0].Title)

	// An outage keeps the last good listing.
	src.down = true
	err := svc.Refresh(ctx)
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, "New", svc.Jobs(ctx).Items[0].Title)
	assert.Equal(t, []string{"Design"}, svc.Departments(ctx).Items)

	svc.Invalidate(ctx)
	assert.True(t, svc.Jobs(ctx).Fallback)
}
