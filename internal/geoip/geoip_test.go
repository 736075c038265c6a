// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"path/filepath"
	"testing"
)

func TestCountryWithoutDatabase(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", Local},
		{"10.1.2.3", Local},
		{"192.168.0.10", Local},
		{"::1", Local},
		{"8.8.8.8", ""},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		if got := r.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
	if r.Enabled() {
		t.Error("Enabled() = true without a database")
	}
	if err := r.Reload(); err != nil {
		t.Errorf("Reload without path: %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	if r == nil || r.Enabled() {
		t.Error("resolver should still be usable and disabled")
	}
}

func TestNilResolver(t *testing.T) {
	var r *Resolver
	if r.Country("8.8.8.8") != "" || r.Enabled() || r.Close() != nil {
		t.Error("nil resolver should be inert")
	}
}
