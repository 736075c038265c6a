// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guard decides what a protected route shows for the current auth
// state. It has no I/O; middleware renders the decision.
package guard

import "net/url"

// Decision is the outcome of a guard check.
type Decision int

// Decisions, in evaluation order.
const (
	// ShowLoading renders a neutral placeholder while auth is in flight.
	ShowLoading Decision = iota
	// RedirectLogin sends an anonymous visitor to the login page.
	RedirectLogin
	// AccessDenied renders the fixed denial view; the session is kept.
	AccessDenied
	// Allow serves the protected content.
	Allow
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "show_loading"
	case RedirectLogin:
		return "redirect_login"
	case AccessDenied:
		return "access_denied"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// State is the auth state a decision is made from.
type State struct {
	Loading       bool
	Authenticated bool
	Admin         bool
}

// Decide returns the decision for state. Loading wins over everything,
// then authentication, then the admin requirement.
func Decide(s State, requireAdmin bool) Decision {
	switch {
	case s.Loading:
		return ShowLoading
	case !s.Authenticated:
		return RedirectLogin
	case requireAdmin && !s.Admin:
		return AccessDenied
	default:
		return Allow
	}
}

// LoginPath is where RedirectLogin sends visitors.
const LoginPath = "/login"

// DashboardPath is the only link offered by the access-denied view.
const DashboardPath = "/dashboard"

// LoginURL returns the login URL carrying next as the return path. Only
// same-site absolute paths are kept.
func LoginURL(next string) string {
	if !SafeNext(next) {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext reports whether next is a local path usable as a redirect target.
func SafeNext(next string) bool {
	if next == "" || next[0] != '/' {
		return false
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return false
	}
	u, err := url.Parse(next)
	return err == nil && u.Scheme == "" && u.Host == ""
}
