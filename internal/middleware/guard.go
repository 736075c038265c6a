// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/guard"
	"github.com/olegiv/vetpl-go/internal/metrics"
	"github.com/olegiv/vetpl-go/internal/model"
)

// Guard renders guard decisions for protected routes.
type Guard struct {
	auth    *auth.Service
	events  auth.EventRecorder
	metrics *metrics.Metrics
	loading http.Handler
	denied  http.Handler
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	Auth    *auth.Service
	Events  auth.EventRecorder
	Metrics *metrics.Metrics
	// Loading renders the neutral placeholder. The status is already set.
	Loading http.Handler
	// Denied renders the access-denied view. The status is already set.
	Denied http.Handler
}

// NewGuard creates a Guard. Nil views fall back to plain text responses.
func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{
		auth:    cfg.Auth,
		events:  cfg.Events,
		metrics: cfg.Metrics,
		loading: cfg.Loading,
		denied:  cfg.Denied,
	}
	if g.loading == nil {
		g.loading = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("Loading..."))
		})
	}
	if g.denied == nil {
		g.denied = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("Access Denied"))
		})
	}
	return g
}

// RequireAuth allows any signed-in user.
func (g *Guard) RequireAuth() func(http.Handler) http.Handler {
	return g.require(false, "")
}

// RequireAdmin allows only admins.
func (g *Guard) RequireAdmin() func(http.Handler) http.Handler {
	return g.require(true, "")
}

// RequirePermission allows signed-in users whose role grants perm.
func (g *Guard) RequirePermission(perm string) func(http.Handler) http.Handler {
	return g.require(false, perm)
}

func (g *Guard) require(requireAdmin bool, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			decision := guard.Decide(guard.State{
				Loading:       g.auth != nil && g.auth.LoadingFor(r.Context()),
				Authenticated: user != nil,
				Admin:         user.IsAdmin(),
			}, requireAdmin)
			if decision == guard.Allow && perm != "" && !model.HasPermission(user.Role, perm) {
				decision = guard.AccessDenied
			}

			switch decision {
			case guard.ShowLoading:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				g.loading.ServeHTTP(w, r)
			case guard.RedirectLogin:
				http.Redirect(w, r, guard.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			case guard.AccessDenied:
				g.deny(w, r, user, requireAdmin, perm)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, user *model.User, requireAdmin bool, perm string) {
	required := perm
	if requireAdmin {
		required = string(model.RoleAdmin)
	}

	// Log 403 for security monitoring (application logs)
	slog.Warn("access denied",
		"status", http.StatusForbidden,
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", user.ID,
		"user_role", user.Role,
		"required", required,
		"ip", ClientIP(r),
		"category", model.EventCategoryAuth,
	)
	g.metrics.IncAccessDenied(guard.AccessDenied.String())

	if g.events != nil {
		metadata := map[string]any{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    http.StatusForbidden,
			"user_role": string(user.Role),
			"required":  required,
		}
		_ = g.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Access denied: insufficient permissions", user.ID, ClientIP(r), metadata)
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	g.denied.ServeHTTP(w, r)
}
