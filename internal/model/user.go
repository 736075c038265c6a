// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, roles, permissions, careers listings and dashboard figures.
package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Role is the single authorization role a user holds.
type Role string

// User roles.
const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
)

// Roles returns all known roles ordered from least to most privileged.
func Roles() []Role {
	return []Role{RoleUser, RoleDeveloper, RoleManager, RoleAdmin}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleUser:
		return true
	}
	return false
}

// ParseRole converts a string to a Role. Unknown values map to RoleUser.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleUser
	}
	return r
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// Label is the display name of r.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleDeveloper:
		return "Developer"
	case RoleUser:
		return "User"
	}
	return "Unknown"
}

// User is the identity and authorization record of a signed-in person.
// Credentials are held by identity providers and never appear here.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	Phone      string    `json:"phone"`
	Avatar     string    `json:"avatar"`
	Active     bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Permissions returns the permissions derived from the user's role.
func (u *User) Permissions() []string {
	if u == nil {
		return nil
	}
	return Permissions(u.Role)
}

// Clone returns a copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Initials returns up to two upper-case initials of the user's name.
func (u *User) Initials() string {
	if u == nil {
		return ""
	}
	var out []rune
	for _, part := range strings.Fields(u.Name) {
		r, _ := utf8.DecodeRuneInString(part)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// AvatarURL returns the DiceBear avatar for a seed.
func AvatarURL(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}
