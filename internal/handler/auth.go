// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/guard"
	"github.com/olegiv/vetpl-go/internal/middleware"
)

// Auth form messages.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgAccountLocked      = "Too many failed attempts. Please try again in %s."
	msgBusy               = "A request is already in progress. Please wait."
	msgNotAdmin           = "This account does not have administrator access."
	msgRegistered         = "Account created. Please sign in."
	msgLoggedOut          = "You have been signed out."
	msgGeneric            = "Something went wrong. Please try again."
)

// LoginView is the template data of the login pages.
type LoginView struct {
	Email  string
	Next   string
	Error  string
	Admin  bool
	Action string
	// Demo lists the demo credentials when the demo identity backend is on.
	Demo []auth.DemoAccount
}

// RegisterView is the template data of the registration page.
type RegisterView struct {
	Name  string
	Email string
	Error string
}

// AuthHandler handles sign-in, registration and sign-out.
type AuthHandler struct {
	views      *Views
	auth       *auth.Service
	sm         *scs.SessionManager
	throttle   *middleware.LoginThrottle
	demo       []auth.DemoAccount
	logger     *slog.Logger
}

// AuthHandlerConfig configures an AuthHandler.
type AuthHandlerConfig struct {
	Views          *Views
	Auth           *auth.Service
	SessionManager *scs.SessionManager
	Throttle       *middleware.LoginThrottle
	// DemoAccounts are shown on the login page. Leave empty outside demo mode.
	DemoAccounts []auth.DemoAccount
	Logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AuthHandler{
		views:      cfg.Views,
		auth:       cfg.Auth,
		sm:         cfg.SessionManager,
		throttle:   cfg.Throttle,
		demo:       cfg.DemoAccounts,
		logger:     cfg.Logger,
	}
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r, false)
}

// AdminLoginForm handles GET /admin/login.
func (h *AuthHandler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r, true)
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin handles POST /admin/login. Only admins may sign in here.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *AuthHandler) showLogin(w http.ResponseWriter, r *http.Request, admin bool) {
	next := r.URL.Query().Get("next")
	if user := middleware.GetUser(r); user != nil && (!admin || user.IsAdmin()) {
		http.Redirect(w, r, h.landing(next, admin), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, LoginView{Next: safeNext(next), Admin: admin})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	action := loginAction(admin)
	if !parseFormOrRedirect(w, r, h.views.renderer, action) {
		return
	}
	view := LoginView{
		Email: formValue(r, "email"),
		Next:  safeNext(r.FormValue("next")),
		Admin: admin,
	}
	password := r.FormValue("password")

	if h.throttle != nil {
		if remaining, locked := h.throttle.Locked(view.Email); locked {
			view.Error = fmt.Sprintf(msgAccountLocked, remaining.Round(time.Second))
			h.renderLogin(w, r, http.StatusTooManyRequests, view)
			return
		}
	}

	st := middleware.GetStore(r)
	user, err := h.auth.Login(r.Context(), st, view.Email, password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrValidation):
		if h.throttle != nil {
			h.throttle.Fail(view.Email)
		}
		view.Error = msgInvalidCredentials
		h.renderLogin(w, r, http.StatusUnauthorized, view)
		return
	case errors.Is(err, auth.ErrBusy):
		view.Error = msgBusy
		h.renderLogin(w, r, http.StatusConflict, view)
		return
	default:
		h.logger.Error("login failed", "error", err)
		view.Error = msgGeneric
		h.renderLogin(w, r, http.StatusBadGateway, view)
		return
	}

	if h.throttle != nil {
		h.throttle.Succeed(view.Email)
	}

	if admin && !user.IsAdmin() {
		h.auth.Logout(r.Context(), st)
		view.Error = msgNotAdmin
		h.renderLogin(w, r, http.StatusForbidden, view)
		return
	}

	// New session id after privilege change.
	if h.sm != nil {
		if err := h.sm.RenewToken(r.Context()); err != nil {
			logAndInternalError(w, "failed to renew session token", "error", err)
			return
		}
	}

	http.Redirect(w, r, h.landing(view.Next, admin), http.StatusSeeOther)
}

// landing is where a signed-in user goes after login.
func (h *AuthHandler) landing(next string, admin bool) string {
	if guard.SafeNext(next) {
		return next
	}
	if admin {
		return applicationsURL
	}
	return guard.DashboardPath
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, view LoginView) {
	view.Action = loginAction(view.Admin)
	view.Demo = h.demo
	title := "Sign In"
	if view.Admin {
		title = "Admin Sign In"
	}
	h.views.status(w, r, status, tmplLogin, title, view)
}

func loginAction(admin bool) string {
	if admin {
		return adminLoginPath
	}
	return guard.LoginPath
}

func safeNext(next string) string {
	if guard.SafeNext(next) {
		return next
	}
	return ""
}

// RegisterForm handles GET /register.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, guard.DashboardPath, http.StatusSeeOther)
		return
	}
	h.views.page(w, r, tmplRegister, "Create Account", RegisterView{})
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.views.renderer, "/register") {
		return
	}
	view := RegisterView{
		Name:  formValue(r, "name"),
		Email: formValue(r, "email"),
	}
	password := r.FormValue("password")

	if password != r.FormValue("confirm_password") {
		view.Error = "Passwords do not match"
		h.views.status(w, r, http.StatusUnprocessableEntity, tmplRegister, "Create Account", view)
		return
	}

	_, err := h.auth.Register(r.Context(), view.Name, view.Email, password)
	switch {
	case err == nil:
		flashSuccess(w, r, h.views.renderer, guard.LoginPath, msgRegistered)
		return
	case errors.Is(err, auth.ErrEmailExists):
		view.Error = "An account with this email already exists"
		h.views.status(w, r, http.StatusConflict, tmplRegister, "Create Account", view)
	case errors.Is(err, auth.ErrValidation):
		view.Error = validationMessage(err)
		h.views.status(w, r, http.StatusUnprocessableEntity, tmplRegister, "Create Account", view)
	case errors.Is(err, auth.ErrBusy):
		view.Error = msgBusy
		h.views.status(w, r, http.StatusConflict, tmplRegister, "Create Account", view)
	default:
		h.logger.Error("registration failed", "error", err)
		view.Error = msgGeneric
		h.views.status(w, r, http.StatusBadGateway, tmplRegister, "Create Account", view)
	}
}

// Logout handles POST /logout. It is safe to call without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), middleware.GetStore(r))
	if h.sm != nil {
		if err := h.sm.RenewToken(r.Context()); err != nil {
			h.logger.Warn("failed to renew session token", "error", err)
		}
	}
	flashSuccess(w, r, h.views.renderer, guard.LoginPath, msgLoggedOut)
}
