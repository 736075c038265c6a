// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/olegiv/vetpl-go/internal/model"
)

// DemoAccount is one row of the demo user table.
type DemoAccount struct {
	User     model.User
	Password string
}

// DemoAccounts returns the built-in demo users.
func DemoAccounts() []DemoAccount {
	return []DemoAccount{
		{
			User: model.User{
				ID: "1", Email: "admin@company.com", Name: "Admin User",
				Role: model.RoleAdmin, Department: "Management",
				Phone: "+1 (555) 123-4567", Avatar: model.AvatarURL("Admin"),
				Active: true, CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			},
			Password: "admin123",
		},
		{
			User: model.User{
				ID: "2", Email: "manager@company.com", Name: "Sarah Johnson",
				Role: model.RoleManager, Department: "Sales",
				Phone: "+1 (555) 987-6543", Avatar: model.AvatarURL("Sarah"),
				Active: true, CreatedAt: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			},
			Password: "manager123",
		},
		{
			User: model.User{
				ID: "3", Email: "user@company.com", Name: "John Doe",
				Role: model.RoleDeveloper, Department: "IT",
				Phone: "+1 (555) 456-7890", Avatar: model.AvatarURL("John"),
				Active: true, CreatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			},
			Password: "user123",
		},
	}
}

// DemoProvider is an in-memory IdentityProvider over a fixed user table.
// Nothing a visitor does changes the table: registration and profile
// edits are returned without being stored and password changes are only
// verified.
type DemoProvider struct {
	mu       sync.RWMutex
	accounts []DemoAccount
	now      func() time.Time
}

// NewDemoProvider creates a provider seeded with accounts, or with
// DemoAccounts when none are given.
func NewDemoProvider(accounts ...DemoAccount) *DemoProvider {
	if len(accounts) == 0 {
		accounts = DemoAccounts()
	}
	return &DemoProvider{accounts: slices.Clone(accounts), now: time.Now}
}

func (p *DemoProvider) indexByEmail(email string) int {
	return slices.IndexFunc(p.accounts, func(a DemoAccount) bool {
		return a.User.Email == email
	})
}

func (p *DemoProvider) indexByID(id string) int {
	return slices.IndexFunc(p.accounts, func(a DemoAccount) bool {
		return a.User.ID == id
	})
}

// Authenticate implements IdentityProvider.
func (p *DemoProvider) Authenticate(_ context.Context, email, password string) (*Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.indexByEmail(NormalizeEmail(email))
	if i < 0 {
		return nil, ErrInvalidCredentials
	}
	acct := p.accounts[i]
	if subtle.ConstantTimeCompare([]byte(acct.Password), []byte(password)) != 1 || !acct.User.Active {
		return nil, ErrInvalidCredentials
	}
	return &Identity{User: acct.User.Clone()}, nil
}

// Register implements IdentityProvider. The returned user is not stored.
func (p *DemoProvider) Register(_ context.Context, req NewUser) (*model.User, error) {
	email := NormalizeEmail(req.Email)

	p.mu.RLock()
	exists := p.indexByEmail(email) >= 0
	p.mu.RUnlock()
	if exists {
		return nil, ErrEmailExists
	}

	name := strings.TrimSpace(req.Name)
	return &model.User{
		ID:         "demo-" + strings.ToLower(ulid.Make().String()),
		Email:      email,
		Name:       name,
		Role:       model.RoleUser,
		Department: "General",
		Avatar:     model.AvatarURL(strings.Fields(name + " user")[0]),
		Active:     true,
		CreatedAt:  p.now().UTC(),
	}, nil
}

// UpdateProfile implements IdentityProvider. The demo table is shared by
// every visitor, so the merged user is returned for the caller's session
// and the table is left as it is.
func (p *DemoProvider) UpdateProfile(_ context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.indexByID(id)
	if i < 0 {
		return nil, ErrUserNotFound
	}
	if upd.Email != nil {
		if j := p.indexByEmail(NormalizeEmail(*upd.Email)); j >= 0 && j != i {
			return nil, ErrEmailExists
		}
	}
	u := p.accounts[i].User.Clone()
	upd.Apply(u)
	return u, nil
}

// ChangePassword implements IdentityProvider. The current password is
// verified but the demo credentials never change.
func (p *DemoProvider) ChangePassword(_ context.Context, id, current, _ string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.indexByID(id)
	if i < 0 {
		return ErrUserNotFound
	}
	if subtle.ConstantTimeCompare([]byte(p.accounts[i].Password), []byte(current)) != 1 {
		return fmt.Errorf("current password: %w", ErrInvalidCredentials)
	}
	return nil
}

// ListUsers implements IdentityProvider.
func (p *DemoProvider) ListUsers(_ context.Context) ([]model.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]model.User, 0, len(p.accounts))
	for _, a := range p.accounts {
		users = append(users, a.User)
	}
	return users, nil
}

var _ IdentityProvider = (*DemoProvider)(nil)
