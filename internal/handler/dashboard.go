// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/guard"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
)

// DashboardView is the template data of the dashboard home.
type DashboardView struct {
	Stats      model.DashboardStats
	Activities []model.Activity
	Projects   []model.ProjectProgress
}

// ProfileView is the template data of the profile page.
type ProfileView struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Avatar     string
	Errors     map[string]string
	Error      string
}

// SettingsView is the template data of the settings page.
type SettingsView struct {
	Errors map[string]string
	Error  string
}

// DashboardHandler serves the signed-in user's pages.
type DashboardHandler struct {
	views  *Views
	auth   *auth.Service
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(views *Views, authService *auth.Service, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{views: views, auth: authService, logger: logger}
}

// Home handles GET /dashboard.
func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.views.page(w, r, tmplDashboard, "Dashboard", DashboardView{
		Stats:      model.DemoDashboardStats(),
		Activities: model.DemoActivities(),
		Projects:   model.DemoProjects(),
	})
}

// Profile handles GET /dashboard/profile.
func (h *DashboardHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	h.views.page(w, r, tmplProfile, "Profile", ProfileView{
		Name:       user.Name,
		Email:      user.Email,
		Phone:      user.Phone,
		Department: user.Department,
		Avatar:     user.Avatar,
	})
}

// UpdateProfile handles POST /dashboard/profile.
func (h *DashboardHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.views.renderer, profilePath) {
		return
	}
	view := ProfileView{
		Name:       formValue(r, "name"),
		Email:      formValue(r, "email"),
		Phone:      formValue(r, "phone"),
		Department: formValue(r, "department"),
		Avatar:     formValue(r, "avatar"),
	}
	upd := auth.ProfileUpdate{
		Name:       &view.Name,
		Email:      &view.Email,
		Phone:      &view.Phone,
		Department: &view.Department,
	}
	if view.Avatar != "" {
		upd.Avatar = &view.Avatar
	}

	updated, err := h.auth.UpdateProfile(r.Context(), middleware.GetStore(r), upd)
	switch {
	case err == nil:
		slog.Info("profile updated", "user_id", updated.ID)
		flashSuccess(w, r, h.views.renderer, profilePath, "Profile updated successfully")
	case errors.Is(err, auth.ErrNotAuthenticated):
		http.Redirect(w, r, guard.LoginURL(profilePath), http.StatusSeeOther)
	case errors.Is(err, auth.ErrValidation):
		view.Errors = fieldErrors(err)
		view.Error = "Please correct the highlighted fields."
		h.views.status(w, r, http.StatusUnprocessableEntity, tmplProfile, "Profile", view)
	case errors.Is(err, auth.ErrEmailExists):
		view.Errors = map[string]string{"email": "This email is already in use"}
		h.views.status(w, r, http.StatusConflict, tmplProfile, "Profile", view)
	case errors.Is(err, auth.ErrBusy):
		view.Error = msgBusy
		h.views.status(w, r, http.StatusConflict, tmplProfile, "Profile", view)
	default:
		h.logger.Error("failed to update profile", "user_id", middleware.GetUserID(r), "error", err)
		view.Error = msgGeneric
		h.views.status(w, r, http.StatusBadGateway, tmplProfile, "Profile", view)
	}
}

// Settings handles GET /dashboard/settings.
func (h *DashboardHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.views.page(w, r, tmplSettings, "Settings", SettingsView{})
}

// ChangePassword handles POST /dashboard/settings.
func (h *DashboardHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.views.renderer, settingsPath) {
		return
	}
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	if next != r.FormValue("confirm_password") {
		h.views.status(w, r, http.StatusUnprocessableEntity, tmplSettings, "Settings", SettingsView{
			Errors: map[string]string{"confirm_password": "Passwords do not match"},
		})
		return
	}

	err := h.auth.ChangePassword(r.Context(), middleware.GetStore(r), current, next)
	switch {
	case err == nil:
		flashSuccess(w, r, h.views.renderer, settingsPath, "Password changed successfully")
	case errors.Is(err, auth.ErrNotAuthenticated):
		http.Redirect(w, r, guard.LoginURL(settingsPath), http.StatusSeeOther)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.views.status(w, r, http.StatusUnprocessableEntity, tmplSettings, "Settings", SettingsView{
			Errors: map[string]string{"current_password": "Current password is incorrect"},
		})
	case errors.Is(err, auth.ErrValidation):
		h.views.status(w, r, http.StatusUnprocessableEntity, tmplSettings, "Settings", SettingsView{
			Errors: fieldErrors(err),
		})
	case errors.Is(err, auth.ErrBusy):
		h.views.status(w, r, http.StatusConflict, tmplSettings, "Settings", SettingsView{Error: msgBusy})
	default:
		h.logger.Error("failed to change password", "user_id", middleware.GetUserID(r), "error", err)
		h.views.status(w, r, http.StatusBadGateway, tmplSettings, "Settings", SettingsView{Error: msgGeneric})
	}
}

// ToggleSidebar handles POST /dashboard/sidebar and returns to the
// referring dashboard page.
func (h *DashboardHandler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	if st := middleware.GetStore(r); st != nil {
		st.SetSidebarCollapsed(r.Context(), !st.SidebarCollapsed(r.Context()))
	}
	http.Redirect(w, r, backTo(r, guard.DashboardPath), http.StatusSeeOther)
}

// backTo returns the local path of the Referer, or fallback.
func backTo(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return fallback
	}
	target := ref.Path
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	if !guard.SafeNext(target) {
		return fallback
	}
	return target
}
