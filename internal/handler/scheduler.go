// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/scheduler"
	"github.com/olegiv/vetpl-go/internal/service"
)

const jobTimeLayout = "2006-01-02 15:04:05"

// JobRegistry is the part of scheduler.Registry the jobs page drives.
type JobRegistry interface {
	List() []scheduler.JobInfo
	UpdateSchedule(ctx context.Context, name, schedule string) error
	ResetSchedule(ctx context.Context, name string) error
	Trigger(ctx context.Context, name string) error
}

// JobView is one row of the jobs page.
type JobView struct {
	Name            string
	Description     string
	DefaultSchedule string
	Schedule        string
	Overridden      bool
	Running         bool
	LastRun         string
	LastDuration    string
	LastError       string
	NextRun         string
}

// SchedulerHandler serves the admin jobs page.
type SchedulerHandler struct {
	views  *Views
	jobs   JobRegistry
	events *service.EventService
	logger *slog.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler. events may be nil.
func NewSchedulerHandler(views *Views, jobs JobRegistry, events *service.EventService, logger *slog.Logger) *SchedulerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulerHandler{views: views, jobs: jobs, events: events, logger: logger}
}

func formatJobTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(jobTimeLayout)
}

// List handles GET /dashboard/admin/jobs.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	rows := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		row := JobView{
			Name:            j.Name,
			Description:     j.Description,
			DefaultSchedule: j.DefaultSchedule,
			Schedule:        j.Schedule,
			Overridden:      j.Overridden,
			Running:         j.Running,
			LastRun:         formatJobTime(j.LastRun),
			LastError:       j.LastError,
			NextRun:         formatJobTime(j.NextRun),
		}
		if !j.LastRun.IsZero() {
			row.LastDuration = j.LastDuration.Round(time.Millisecond).String()
		}
		rows = append(rows, row)
	}
	h.views.page(w, r, tmplJobs, "Scheduled Jobs", rows)
}

// jobMessage turns a registry error into the flash shown to the admin.
func jobMessage(action string, err error) string {
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		return action + ": unknown job"
	case errors.Is(err, scheduler.ErrJobRunning):
		return action + ": the job is already running"
	default:
		return action + ": " + err.Error()
	}
}

// UpdateSchedule handles POST /dashboard/admin/jobs/update.
func (h *SchedulerHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.views.renderer, jobsURL) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	schedule := strings.TrimSpace(r.FormValue("schedule"))
	if name == "" || schedule == "" {
		flashError(w, r, h.views.renderer, jobsURL, "Job and schedule are required")
		return
	}

	if err := h.jobs.UpdateSchedule(r.Context(), name, schedule); err != nil {
		h.logger.Warn("schedule update rejected", "job", name, "schedule", schedule, "error", err)
		flashError(w, r, h.views.renderer, jobsURL, jobMessage("Schedule not updated", err))
		return
	}
	h.audit(r, "Schedule of "+name+" set to "+schedule, map[string]any{"job": name, "schedule": schedule})
	flashSuccess(w, r, h.views.renderer, jobsURL, "Schedule updated")
}

// ResetSchedule handles POST /dashboard/admin/jobs/reset.
func (h *SchedulerHandler) ResetSchedule(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.views.renderer, jobsURL) {
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		flashError(w, r, h.views.renderer, jobsURL, "Job is required")
		return
	}

	if err := h.jobs.ResetSchedule(r.Context(), name); err != nil {
		h.logger.Error("schedule reset failed", "job", name, "error", err)
		flashError(w, r, h.views.renderer, jobsURL, jobMessage("Schedule not reset", err))
		return
	}
	h.audit(r, "Schedule of "+name+" reset to default", map[string]any{"job": name})
	flashSuccess(w, r, h.views.renderer, jobsURL, "Schedule reset to default")
}

// Trigger handles POST /dashboard/admin/jobs/trigger/{name}. The job runs
// inside the request and its error is shown.
func (h *SchedulerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.jobs.Trigger(r.Context(), name); err != nil {
		h.logger.Warn("manual job run failed", "job", name, "error", err)
		flashError(w, r, h.views.renderer, jobsURL, jobMessage("Job "+name+" failed", err))
		return
	}
	h.audit(r, "Job "+name+" run on demand", map[string]any{"job": name})
	flashSuccess(w, r, h.views.renderer, jobsURL, "Job "+name+" completed")
}

func (h *SchedulerHandler) audit(r *http.Request, message string, meta map[string]any) {
	userID := middleware.GetUserID(r)
	h.logger.Info(message, "user_id", userID)
	if h.events == nil {
		return
	}
	_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategorySystem,
		message, userID, middleware.ClientIP(r), meta)
}
