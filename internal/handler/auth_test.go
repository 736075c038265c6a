// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPageListsDemoAccounts(t *testing.T) {
	app := newTestApp(t)

	status, _, body := app.get("/login?next=/dashboard/profile")
	assert.Equal(t, http.StatusOK, status)
	contains(t, body, `action="/login"`, `value="/dashboard/profile"`, "admin@company.com", "manager123")
}

func TestLoginFlow(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		next     string
		wantLoc  string
	}{
		{"default landing", "user@company.com", "user123", "", "/dashboard"},
		{"safe next", "user@company.com", "user123", "/dashboard/settings", "/dashboard/settings"},
		{"external next ignored", "manager@company.com", "manager123", "https://evil.example/", "/dashboard"},
		{"protocol relative next ignored", "manager@company.com", "manager123", "//evil.example", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			status, loc, _ := app.post("/login", url.Values{
				"email":    {tt.email},
				"password": {tt.password},
				"next":     {tt.next},
			})
			assert.Equal(t, http.StatusSeeOther, status)
			assert.Equal(t, tt.wantLoc, loc)

			status, _, body := app.get("/dashboard")
			assert.Equal(t, http.StatusOK, status)
			contains(t, body, "Recent Activity")
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	status, _, body := app.post("/login", url.Values{"email": {"user@company.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	contains(t, body, msgInvalidCredentials, `value="user@company.com"`)

	status, loc, _ := app.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login?next=%2Fdashboard", loc)
}

func TestLoginLocksAccountAfterRepeatedFailures(t *testing.T) {
	app := newTestApp(t)

	var status int
	for range 10 {
		status, _, _ = app.post("/login", url.Values{"email": {"user@company.com"}, "password": {"nope"}})
		if status == http.StatusTooManyRequests {
			break
		}
	}
	require.Equal(t, http.StatusTooManyRequests, status)

	// The right password does not help while the account is locked.
	status, _, body := app.post("/login", url.Values{"email": {"USER@company.com"}, "password": {"user123"}})
	assert.Equal(t, http.StatusTooManyRequests, status)
	contains(t, body, "Too many failed attempts")
}

func TestAdminLoginRejectsNonAdmin(t *testing.T) {
	app := newTestApp(t)

	status, _, body := app.post("/admin/login", url.Values{"email": {"manager@company.com"}, "password": {"manager123"}})
	assert.Equal(t, http.StatusForbidden, status)
	contains(t, body, "administrator access")

	// The rejected login leaves no session behind.
	status, _, _ = app.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, status)
}

func TestAdminLoginLandsOnApplications(t *testing.T) {
	app := newTestApp(t)

	status, loc, _ := app.post("/admin/login", url.Values{"email": {"admin@company.com"}, "password": {"admin123"}})
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, applicationsURL, loc)

	status, _, body := app.get(loc)
	assert.Equal(t, http.StatusOK, status)
	contains(t, body, "APP-0001", "Jane Roe")
}

func TestNonAdminDeniedAdminPages(t *testing.T) {
	app := newTestApp(t)
	app.login("user@company.com", "user123")

	status, _, body := app.get("/dashboard/admin/users")
	assert.Equal(t, http.StatusForbidden, status)
	contains(t, body, "Access Denied", `href="/dashboard"`)

	// The session survives the denial.
	status, _, _ = app.get("/dashboard")
	assert.Equal(t, http.StatusOK, status)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login("admin@company.com", "admin123")

	status, loc, _ := app.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", loc)

	_, _, body := app.get("/login")
	contains(t, body, msgLoggedOut)

	status, _, _ = app.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, status)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		vals       url.Values
		wantStatus int
		wantText   string
	}{
		{
			name: "success",
			vals: url.Values{"name": {"New Person"}, "email": {"new@company.com"},
				"password": {"Secret123"}, "confirm_password": {"Secret123"}},
			wantStatus: http.StatusSeeOther,
		},
		{
			name: "password mismatch",
			vals: url.Values{"name": {"New Person"}, "email": {"new@company.com"},
				"password": {"Secret123"}, "confirm_password": {"Secret124"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantText:   "Passwords do not match",
		},
		{
			name: "existing email",
			vals: url.Values{"name": {"Someone"}, "email": {"admin@company.com"},
				"password": {"Secret123"}, "confirm_password": {"Secret123"}},
			wantStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			status, loc, body := app.post("/register", tt.vals)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, "/login", loc)
				_, _, page := app.get(loc)
				contains(t, page, msgRegistered)
				return
			}
			if tt.wantText != "" {
				contains(t, body, tt.wantText)
			}
		})
	}
}
