// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	dev := DefaultCSRFConfig(testCSRFKey, true, 9090)
	if len(dev.TrustedOrigins) != 2 {
		t.Fatalf("TrustedOrigins = %v, want 2 entries", dev.TrustedOrigins)
	}
	for _, origin := range dev.TrustedOrigins {
		if strings.HasPrefix(origin, "http") {
			t.Errorf("TrustedOrigin %q should be host:port, not a URL", origin)
		}
		if !strings.HasSuffix(origin, ":9090") {
			t.Errorf("TrustedOrigin %q should use the server port", origin)
		}
	}

	prod := DefaultCSRFConfig(testCSRFKey, false, 9090)
	if len(prod.TrustedOrigins) != 0 {
		t.Errorf("production TrustedOrigins = %v, want none", prod.TrustedOrigins)
	}
	if len(prod.AuthKey) != 32 {
		t.Errorf("AuthKey length = %d, want 32", len(prod.AuthKey))
	}
}

func TestCSRFFetchMetadata(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name      string
		method    string
		fetchSite string
		want      int
	}{
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
		{"cross-site get", http.MethodGet, "cross-site", http.StatusOK},
		{"user-initiated post", http.MethodPost, "none", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customCalled := false
			cfg := DefaultCSRFConfig(testCSRFKey, false, 8080)
			cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				customCalled = true
				http.Error(w, "rejected", http.StatusForbidden)
			})
			handler := CSRF(cfg)(okHandler)

			req := httptest.NewRequest(tt.method, "https://example.com/contact", nil)
			req.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if customCalled != (tt.want == http.StatusForbidden) {
				t.Errorf("error handler called = %v", customCalled)
			}
		})
	}
}
