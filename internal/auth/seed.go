// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/vetpl-go/internal/store"
)

// Seed creates the given accounts in the users table, skipping emails that
// already exist. It returns the number of users created.
func Seed(ctx context.Context, db *sql.DB, logger *slog.Logger, accounts []DemoAccount) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	q := store.New(db)
	created := 0

	for _, acct := range accounts {
		email := NormalizeEmail(acct.User.Email)
		_, err := q.GetUserByEmail(ctx, email)
		if err == nil {
			logger.Info("user already exists, skipping seed", "email", email)
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return created, fmt.Errorf("checking for %s: %w", email, err)
		}

		hash, err := HashPassword(acct.Password)
		if err != nil {
			return created, fmt.Errorf("hashing password: %w", err)
		}

		createdAt := acct.User.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := q.CreateUser(ctx, store.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         acct.User.Name,
			PasswordHash: hash,
			Role:         string(acct.User.Role),
			Department:   acct.User.Department,
			Phone:        acct.User.Phone,
			Avatar:       acct.User.Avatar,
			Active:       acct.User.Active,
			CreatedAt:    createdAt,
			UpdatedAt:    time.Now().UTC(),
		}); err != nil {
			return created, fmt.Errorf("creating %s: %w", email, err)
		}
		logger.Info("seeded user", "email", email, "role", acct.User.Role)
		created++
	}
	return created, nil
}
