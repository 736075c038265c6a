// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the public site, the auth
// pages and the dashboard.
package handler

import (
	"net/http"

	"github.com/olegiv/vetpl-go/internal/content"
	"github.com/olegiv/vetpl-go/internal/guard"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/render"
)

// Template names.
const (
	tmplHome        = "public/home"
	tmplPage        = "public/page"
	tmplForm        = "public/form"
	tmplCareers     = "public/careers"
	tmplApply       = "public/apply"
	tmplLoading     = "public/loading"
	tmplDenied      = "public/access_denied"
	tmplNotFound    = "public/not_found"
	tmplLogin       = "auth/login"
	tmplRegister    = "auth/register"
	tmplDashboard   = "dashboard/home"
	tmplProfile     = "dashboard/profile"
	tmplSettings    = "dashboard/settings"
	tmplUsers       = "dashboard/users"
	tmplApps        = "dashboard/applications"
	tmplApp         = "dashboard/application"
	tmplStats       = "dashboard/stats"
	tmplJobs        = "dashboard/jobs"
	tmplEvents      = "dashboard/events"
	contactPath     = "/contact"
	careersPath     = "/careers"
	profilePath     = "/dashboard/profile"
	settingsPath    = "/dashboard/settings"
	adminLoginPath  = "/admin/login"
	applicationsURL = "/dashboard/admin/applications"
	jobsURL         = "/dashboard/admin/jobs"
)

// Views builds the shared template data and renders the pages every
// handler falls back on.
type Views struct {
	renderer *render.Renderer
	nav      []render.NavItem
}

// NewViews creates Views. The public menu is taken from lib.
func NewViews(renderer *render.Renderer, lib *content.Library) *Views {
	nav := []render.NavItem{{Label: "Home", URL: "/"}}
	if lib != nil {
		for _, p := range lib.Nav() {
			nav = append(nav, render.NavItem{Label: p.Title, URL: "/" + p.Slug})
		}
	}
	nav = append(nav,
		render.NavItem{Label: "Careers", URL: careersPath},
		render.NavItem{Label: "Contact", URL: contactPath},
	)
	return &Views{renderer: renderer, nav: nav}
}

// Renderer returns the underlying renderer.
func (v *Views) Renderer() *render.Renderer {
	return v.renderer
}

// data returns the template data shared by every page.
func (v *Views) data(r *http.Request, title string, payload any) render.TemplateData {
	td := render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data:  payload,
		Nav:   v.nav,
	}
	if st := middleware.GetStore(r); st != nil {
		td.SidebarCollapsed = st.SidebarCollapsed(r.Context())
	}
	return td
}

// page renders name with status 200.
func (v *Views) page(w http.ResponseWriter, r *http.Request, name, title string, payload any) {
	v.renderer.RenderPage(w, r, name, v.data(r, title, payload))
}

// status renders name with the given status.
func (v *Views) status(w http.ResponseWriter, r *http.Request, status int, name, title string, payload any) {
	if err := v.renderer.RenderStatus(w, r, status, name, v.data(r, title, payload)); err != nil {
		logAndInternalError(w, "failed to render page", "template", name, "error", err)
	}
}

// Loading renders the neutral placeholder shown while an auth operation
// is in flight. The guard has already written the status.
func (v *Views) Loading() http.Handler {
	return v.prewritten(tmplLoading, "Loading")
}

// Denied renders the access-denied view. Its only link leads to the
// dashboard. The guard has already written the status.
func (v *Views) Denied() http.Handler {
	return v.prewritten(tmplDenied, "Access Denied")
}

// NotFound renders the 404 page.
func (v *Views) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.status(w, r, http.StatusNotFound, tmplNotFound, "Page Not Found", nil)
	})
}

// prewritten renders a page for a response whose status line is already
// sent. RenderStatus would write the header again, so the status write is
// swallowed.
func (v *Views) prewritten(name, title string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := v.data(r, title, map[string]string{"DashboardURL": guard.DashboardPath})
		_ = v.renderer.RenderStatus(headerSent{w}, r, http.StatusOK, name, data)
	})
}

// headerSent ignores WriteHeader on a response whose status is already out.
type headerSent struct {
	http.ResponseWriter
}

func (headerSent) WriteHeader(int) {}
