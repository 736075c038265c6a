// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/service"
)

// ApplicationsAPI is the admin side of the careers backend.
type ApplicationsAPI interface {
	ListApplications(ctx context.Context, f apiclient.ApplicationFilter) ([]model.Application, error)
	GetApplication(ctx context.Context, id int64) (*model.Application, error)
	UpdateApplication(ctx context.Context, id int64, upd apiclient.ApplicationUpdate) (*model.Application, error)
	DeleteApplication(ctx context.Context, id int64) error
	ApplicationStats(ctx context.Context) (apiclient.StatsResult, error)
}

// UsersView is the template data of the users page.
type UsersView struct {
	Users []model.User
	Error string
}

// ApplicationsView is the template data of the applications list.
type ApplicationsView struct {
	Applications []model.Application
	Statuses     []model.ApplicationStatus
	Departments  []string
	Department   string
	Status       string
	Pager        Pager
	Error        string
}

// ApplicationView is the template data of one application.
type ApplicationView struct {
	App      *model.Application
	Statuses []model.ApplicationStatus
}

// DepartmentCount is one row of the per-department breakdown.
type DepartmentCount struct {
	Name  string
	Count int
}

// StatsView is the template data of the statistics page.
type StatsView struct {
	Stats       model.ApplicationStats
	Departments []DepartmentCount
	// Fallback is set when the figures are sample data.
	Fallback bool
}

// AdminHandler serves the admin pages of the dashboard.
type AdminHandler struct {
	views    *Views
	auth     *auth.Service
	api      ApplicationsAPI
	listings Listings
	events   *service.EventService
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(views *Views, authService *auth.Service, api ApplicationsAPI, listings Listings, events *service.EventService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		views:    views,
		auth:     authService,
		api:      api,
		listings: listings,
		events:   events,
		logger:   logger,
	}
}

// Users handles GET /dashboard/admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	view := UsersView{Users: users}
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		view.Error = "Could not load users."
	}
	h.views.page(w, r, tmplUsers, "Users", view)
}

// Applications handles GET /dashboard/admin/applications.
func (h *AdminHandler) Applications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := ParsePageParam(r)
	view := ApplicationsView{
		Statuses:   model.ApplicationStatuses(),
		Department: q.Get("department"),
		Status:     q.Get("status"),
	}
	if h.listings != nil {
		view.Departments = h.listings.Departments(r.Context()).Items
	}

	status := model.ApplicationStatus(view.Status)
	if status != "" && !status.Valid() {
		view.Status, status = "", ""
	}

	apps, err := h.api.ListApplications(r.Context(), apiclient.ApplicationFilter{
		Skip:       (page - 1) * apiclient.DefaultPageSize,
		Limit:      apiclient.DefaultPageSize,
		Department: view.Department,
		Status:     status,
	})
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logger.Warn("failed to list applications", "error", err)
		view.Error = apiclient.UserMessage(err)
	}
	view.Applications = apps
	view.Pager = BuildPager(page, len(apps), apiclient.DefaultPageSize, applicationsURL, q)

	h.views.page(w, r, tmplApps, "Applications", view)
}

// Application handles GET /dashboard/admin/applications/{id}.
func (h *AdminHandler) Application(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.api.GetApplication(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, applicationsURL)
		return
	}
	h.views.page(w, r, tmplApp, app.FullName, ApplicationView{App: app, Statuses: model.ApplicationStatuses()})
}

// UpdateApplication handles POST /dashboard/admin/applications/{id}.
func (h *AdminHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	back := applicationURL(id)
	if !parseFormOrRedirect(w, r, h.views.renderer, back) {
		return
	}

	upd := apiclient.ApplicationUpdate{Status: model.ApplicationStatus(formValue(r, "status"))}
	if r.PostForm.Has("department") {
		dept := formValue(r, "department")
		upd.Department = &dept
	}
	if upd.Status == "" && upd.Department == nil {
		flashError(w, r, h.views.renderer, back, "Nothing to update")
		return
	}

	app, err := h.api.UpdateApplication(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, apiclient.ErrInvalidStatus) {
			flashError(w, r, h.views.renderer, back, "Invalid status")
			return
		}
		h.fail(w, r, err, back)
		return
	}

	h.audit(r, "Application updated", map[string]any{"application_id": app.ApplicationID, "status": string(app.Status)})
	slog.Info("application updated", "id", id, "status", app.Status, "updated_by", middleware.GetUserID(r))
	flashSuccess(w, r, h.views.renderer, back, "Application updated")
}

// DeleteApplication handles POST /dashboard/admin/applications/{id}/delete.
func (h *AdminHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteApplication(r.Context(), id); err != nil {
		h.fail(w, r, err, applicationURL(id))
		return
	}
	h.audit(r, "Application deleted", map[string]any{"id": id})
	slog.Info("application deleted", "id", id, "deleted_by", middleware.GetUserID(r))
	flashSuccess(w, r, h.views.renderer, applicationsURL, "Application deleted")
}

// Stats handles GET /dashboard/admin/applications/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.api.ApplicationStats(r.Context())
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.fail(w, r, err, applicationsURL)
		return
	}

	view := StatsView{Stats: res.Stats, Fallback: res.Fallback}
	for name, n := range res.Stats.Departments {
		view.Departments = append(view.Departments, DepartmentCount{Name: name, Count: n})
	}
	sort.Slice(view.Departments, func(i, j int) bool {
		if view.Departments[i].Count != view.Departments[j].Count {
			return view.Departments[i].Count > view.Departments[j].Count
		}
		return view.Departments[i].Name < view.Departments[j].Name
	})
	if res.Fallback {
		h.logger.Warn("serving fallback application stats", "error", res.Cause)
	}
	h.views.page(w, r, tmplStats, "Application Statistics", view)
}

func (h *AdminHandler) applicationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.views.NotFound().ServeHTTP(w, r)
		return 0, false
	}
	return id, true
}

// unauthorized handles a rejected admin token: the client hook has already
// cleared the session, so the admin is sent to sign in again.
func (h *AdminHandler) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	flashError(w, r, h.views.renderer, adminLoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), apiclient.MsgUnauthorized)
	return true
}

// fail reports a backend failure: 404s render the not-found page, anything
// else flashes the user message and redirects to back.
func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if h.unauthorized(w, r, err) {
		return
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		h.views.NotFound().ServeHTTP(w, r)
		return
	}
	h.logger.Warn("admin backend call failed", "path", r.URL.Path, "error", err)
	flashError(w, r, h.views.renderer, back, apiclient.UserMessage(err))
}

func (h *AdminHandler) audit(r *http.Request, message string, meta map[string]any) {
	if h.events == nil {
		return
	}
	_ = h.events.LogCareersEvent(r.Context(), model.EventLevelInfo, message, middleware.GetUserID(r), middleware.ClientIP(r), meta)
}

func applicationURL(id int64) string {
	return applicationsURL + "/" + strconv.FormatInt(id, 10)
}
