// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/scheduler"
)

// fakeJobs is an in-memory job registry.
type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[string]*scheduler.JobInfo
	triggered []string
	runErr    error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*scheduler.JobInfo{
		scheduler.JobEventsPurge: {
			Name:            scheduler.JobEventsPurge,
			Description:     "Delete events past the retention period",
			DefaultSchedule: scheduler.DefaultEventsPurgeSchedule,
			Schedule:        scheduler.DefaultEventsPurgeSchedule,
			NextRun:         time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC),
		},
	}}
}

func (f *fakeJobs) List() []scheduler.JobInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scheduler.JobInfo, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out
}

func (f *fakeJobs) UpdateSchedule(_ context.Context, name, schedule string) error {
	if err := scheduler.ValidateSchedule(schedule); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, name)
	}
	j.Schedule = schedule
	j.Overridden = schedule != j.DefaultSchedule
	return nil
}

func (f *fakeJobs) ResetSchedule(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, name)
	}
	j.Schedule = j.DefaultSchedule
	j.Overridden = false
	return nil
}

func (f *fakeJobs) Trigger(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, name)
	}
	f.triggered = append(f.triggered, name)
	j.LastRun = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.LastDuration = 1500 * time.Microsecond
	if f.runErr != nil {
		j.LastError = f.runErr.Error()
	}
	return f.runErr
}

func TestJobsPageAdminOnly(t *testing.T) {
	app := newTestApp(t)
	app.login("user@company.com", "user123")

	status, _, body := app.get(jobsURL)
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotContains(t, body, scheduler.JobEventsPurge)
}

func TestJobsPageLists(t *testing.T) {
	app := newTestApp(t)
	app.login("admin@company.com", "admin123")

	status, _, body := app.get(jobsURL)
	require.Equal(t, http.StatusOK, status)
	contains(t, body,
		scheduler.JobEventsPurge,
		"Delete events past the retention period",
		`value="30 3 * * *"`,
		"2026-03-02 03:30:00",
		`action="/dashboard/admin/jobs/trigger/events_purge"`,
	)
	assert.NotContains(t, body, "/dashboard/admin/jobs/reset", "no reset on the default schedule")
}

func TestJobsUpdateAndResetSchedule(t *testing.T) {
	app := newTestApp(t)
	app.login("admin@company.com", "admin123")

	status, loc, _ := app.post(jobsURL+"/update", url.Values{"name": {scheduler.JobEventsPurge}, "schedule": {"@every 6h"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, jobsURL, loc)
	_, _, body := app.get(jobsURL)
	contains(t, body, "Schedule updated", `value="@every 6h"`, "/dashboard/admin/jobs/reset")

	status, _, _ = app.post(jobsURL+"/update", url.Values{"name": {scheduler.JobEventsPurge}, "schedule": {"whenever"}})
	require.Equal(t, http.StatusSeeOther, status)
	_, _, body = app.get(jobsURL)
	contains(t, body, "Schedule not updated: invalid cron expression", `value="@every 6h"`)

	status, _, _ = app.post(jobsURL+"/update", url.Values{"name": {"nightly_backup"}, "schedule": {"@daily"}})
	require.Equal(t, http.StatusSeeOther, status)
	_, _, body = app.get(jobsURL)
	contains(t, body, "Schedule not updated: unknown job")

	status, _, _ = app.post(jobsURL+"/reset", url.Values{"name": {scheduler.JobEventsPurge}})
	require.Equal(t, http.StatusSeeOther, status)
	_, _, body = app.get(jobsURL)
	contains(t, body, "Schedule reset to default", `value="30 3 * * *"`)
}

func TestJobsUpdateRequiresFields(t *testing.T) {
	app := newTestApp(t)
	app.login("admin@company.com", "admin123")

	app.post(jobsURL+"/update", url.Values{"name": {scheduler.JobEventsPurge}})
	_, _, body := app.get(jobsURL)
	contains(t, body, "Job and schedule are required")
}

func TestJobsTrigger(t *testing.T) {
	app := newTestApp(t)
	app.login("admin@company.com", "admin123")

	status, loc, _ := app.post(jobsURL+"/trigger/"+scheduler.JobEventsPurge, nil)
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, jobsURL, loc)
	_, _, body := app.get(jobsURL)
	contains(t, body, "Job events_purge completed", "2026-03-01 12:00:00", "(1.5ms)")

	app.jobs.runErr = errors.New("database is locked")
	app.post(jobsURL+"/trigger/"+scheduler.JobEventsPurge, nil)
	_, _, body = app.get(jobsURL)
	contains(t, body, "Job events_purge failed: database is locked")

	app.jobs.runErr = scheduler.ErrJobRunning
	app.post(jobsURL+"/trigger/"+scheduler.JobEventsPurge, nil)
	_, _, body = app.get(jobsURL)
	contains(t, body, "the job is already running")

	assert.Equal(t, []string{scheduler.JobEventsPurge, scheduler.JobEventsPurge, scheduler.JobEventsPurge}, app.jobs.triggered)
}
