// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/store"
)

// SQLProvider is an IdentityProvider backed by the users table.
type SQLProvider struct {
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewSQLProvider creates a provider over db.
func NewSQLProvider(db *sql.DB, logger *slog.Logger) *SQLProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLProvider{queries: store.New(db), logger: logger, now: time.Now}
}

func userFromRow(u store.User) *model.User {
	return &model.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       model.ParseRole(u.Role),
		Department: u.Department,
		Phone:      u.Phone,
		Avatar:     u.Avatar,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
	}
}

// Authenticate implements IdentityProvider.
func (p *SQLProvider) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	row, err := p.queries.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	ok, err := CheckPassword(password, row.PasswordHash)
	if err != nil {
		p.logger.Error("stored password hash is unreadable", "user_id", row.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok || !row.Active {
		return nil, ErrInvalidCredentials
	}

	if NeedsRehash(row.PasswordHash) {
		if hash, err := HashPassword(password); err == nil {
			if err := p.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				ID: row.ID, PasswordHash: hash, UpdatedAt: p.now(),
			}); err != nil {
				p.logger.Warn("failed to upgrade password hash", "user_id", row.ID, "error", err)
			}
		}
	}

	if err := p.queries.UpdateUserLastLogin(ctx, row.ID, p.now()); err != nil {
		p.logger.Warn("failed to record last login", "user_id", row.ID, "error", err)
	}

	return &Identity{User: userFromRow(row)}, nil
}

// Register implements IdentityProvider.
func (p *SQLProvider) Register(ctx context.Context, req NewUser) (*model.User, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	now := p.now()
	row, err := p.queries.CreateUser(ctx, store.CreateUserParams{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(req.Email),
		Name:         name,
		PasswordHash: hash,
		Role:         string(model.RoleUser),
		Department:   "General",
		Avatar:       model.AvatarURL(strings.Fields(name + " user")[0]),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return userFromRow(row), nil
}

// UpdateProfile implements IdentityProvider.
func (p *SQLProvider) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	row, err := p.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	u := userFromRow(row)
	upd.Apply(u)

	row, err = p.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		ID:         id,
		Email:      u.Email,
		Name:       u.Name,
		Department: u.Department,
		Phone:      u.Phone,
		Avatar:     u.Avatar,
		UpdatedAt:  p.now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return userFromRow(row), nil
}

// ChangePassword implements IdentityProvider.
func (p *SQLProvider) ChangePassword(ctx context.Context, id, current, next string) error {
	row, err := p.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}

	ok, err := CheckPassword(current, row.PasswordHash)
	if err != nil || !ok {
		return fmt.Errorf("current password: %w", ErrInvalidCredentials)
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return p.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID: id, PasswordHash: hash, UpdatedAt: p.now(),
	})
}

// ListUsers implements IdentityProvider.
func (p *SQLProvider) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := p.queries.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, *userFromRow(r))
	}
	return users, nil
}

var _ IdentityProvider = (*SQLProvider)(nil)
