// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("manager123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}

	other, _ := HashPassword("manager123")
	if hash == other {
		t.Error("hashes of the same password must differ by salt")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "admin123", true},
		{"wrong", "admin124", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := CheckPassword(tt.password, hash)
			if err != nil {
				t.Fatalf("CheckPassword: %v", err)
			}
			if ok != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, ok, tt.want)
			}
		})
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	for _, bad := range []string{"", "plain", "$bcrypt$x$y$z$w", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		if _, err := CheckPassword("x", bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, _ := HashPassword("user123")
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
	weaker := strings.Replace(hash, "m=19456,t=2,p=1", "m=4096,t=1,p=1", 1)
	if !NeedsRehash(weaker) {
		t.Error("hash with old parameters should need rehash")
	}
	if !NeedsRehash("garbage") {
		t.Error("garbage should need rehash")
	}
}
