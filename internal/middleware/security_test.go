// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithHeaders(cfg SecurityHeadersConfig, path string) *httptest.ResponseRecorder {
	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name      string
		isDev     bool
		wantHSTS  bool
		wantStyle string
	}{
		{"production", false, true, "style-src 'self';"},
		{"development", true, false, "style-src 'self' 'unsafe-inline';"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithHeaders(DefaultSecurityHeadersConfig(tt.isDev), "/")

			hsts := rec.Header().Get("Strict-Transport-Security")
			if tt.wantHSTS != (hsts != "") {
				t.Errorf("HSTS = %q, want present=%v", hsts, tt.wantHSTS)
			}
			if tt.wantHSTS && !strings.Contains(hsts, "includeSubDomains") {
				t.Errorf("HSTS = %q, want includeSubDomains", hsts)
			}

			csp := rec.Header().Get("Content-Security-Policy")
			if !strings.HasPrefix(csp, "default-src 'self'") {
				t.Errorf("CSP = %q", csp)
			}
			if !strings.Contains(csp, tt.wantStyle) {
				t.Errorf("CSP %q missing %q", csp, tt.wantStyle)
			}
			if !strings.Contains(csp, "frame-ancestors 'none'") {
				t.Errorf("CSP %q missing frame-ancestors", csp)
			}

			if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
				t.Errorf("X-Frame-Options = %q", got)
			}
			if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", got)
			}
			if got := rec.Header().Get("Referrer-Policy"); got != "strict-origin-when-cross-origin" {
				t.Errorf("Referrer-Policy = %q", got)
			}
			if got := rec.Header().Get("Permissions-Policy"); !strings.Contains(got, "camera=()") {
				t.Errorf("Permissions-Policy = %q", got)
			}
		})
	}
}

func TestSecurityHeadersExcludePaths(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)

	rec := serveWithHeaders(cfg, "/metrics")
	if rec.Header().Get("Content-Security-Policy") != "" {
		t.Error("excluded path should not get security headers")
	}

	rec = serveWithHeaders(cfg, "/careers")
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("regular path should get security headers")
	}
}

func TestSecurityHeadersHSTSOptions(t *testing.T) {
	cfg := SecurityHeadersConfig{HSTSMaxAge: 600, HSTSPreload: true}
	rec := serveWithHeaders(cfg, "/")

	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=600; preload" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestBuildCSP(t *testing.T) {
	got := buildCSP(map[string]string{
		"zz-custom":                 "x",
		"script-src":                "'self'",
		"default-src":               "'none'",
		"upgrade-insecure-requests": "",
		"report-to":                 "csp",
	})
	want := "default-src 'none'; script-src 'self'; upgrade-insecure-requests; report-to csp; zz-custom x"
	if got != want {
		t.Errorf("buildCSP() = %q, want %q", got, want)
	}
}

func TestBuildPermissionsPolicy(t *testing.T) {
	got := buildPermissionsPolicy(map[string]string{"usb": "()", "camera": "(self)"})
	if got != "camera=(self), usb=()" {
		t.Errorf("buildPermissionsPolicy() = %q", got)
	}
}
