// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth is the single owner of the signed-in user: identity providers,
// password hashing, session tokens and the Service that mutates the session.
package auth

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks github.com/olegiv/vetpl-go/internal/auth IdentityProvider

import (
	"context"
	"errors"
	"strings"

	"github.com/olegiv/vetpl-go/internal/model"
)

var (
	// ErrInvalidCredentials is returned when email and password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists is returned when registering or renaming to a taken email.
	ErrEmailExists = errors.New("email already registered")
	// ErrNotAuthenticated is returned by mutations attempted without a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrValidation wraps rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrBusy is returned when the same operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrUserNotFound is returned for unknown user ids.
	ErrUserNotFound = errors.New("user not found")
)

// Identity is what a provider returns on successful authentication.
// Token is empty when the provider leaves token issuing to the Service.
type Identity struct {
	User  *model.User
	Token string
}

// NewUser is a registration request.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate carries the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	Name       *string
	Email      *string
	Phone      *string
	Department *string
	Avatar     *string
}

// Apply merges the non-nil fields into u.
func (p ProfileUpdate) Apply(u *model.User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Department != nil {
		u.Department = strings.TrimSpace(*p.Department)
	}
	if p.Avatar != nil {
		u.Avatar = strings.TrimSpace(*p.Avatar)
	}
}

// IdentityProvider is the backend holding users and credentials.
type IdentityProvider interface {
	// Authenticate returns the identity for an exact email and password match,
	// or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*Identity, error)
	// Register creates an account, or fails with ErrEmailExists.
	Register(ctx context.Context, req NewUser) (*model.User, error)
	// UpdateProfile changes profile fields of user id.
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error)
	// ChangePassword replaces the password after verifying current.
	ChangePassword(ctx context.Context, id, current, next string) error
	// ListUsers returns all known users.
	ListUsers(ctx context.Context) ([]model.User, error)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
