// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// User is a row of the users table.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Department   string
	Phone        string
	Avatar       string
	Active       bool
	LastLoginAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, email, name, password_hash, role, department, phone, avatar, active, last_login_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Department,
		&u.Phone, &u.Avatar, &u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// CreateUserParams are the columns of a new user.
type CreateUserParams struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Department   string
	Phone        string
	Avatar       string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createUser = `INSERT INTO users (id, email, name, password_hash, role, department, phone, avatar, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUser inserts a user.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ID, arg.Email, arg.Name, arg.PasswordHash, arg.Role,
		arg.Department, arg.Phone, arg.Avatar, arg.Active, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail returns sql.ErrNoRows for unknown emails.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID returns sql.ErrNoRows for unknown ids.
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

// UpdateUserProfileParams are the editable profile columns.
type UpdateUserProfileParams struct {
	ID         string
	Email      string
	Name       string
	Department string
	Phone      string
	Avatar     string
	UpdatedAt  time.Time
}

const updateUserProfile = `UPDATE users
SET email = ?, name = ?, department = ?, phone = ?, avatar = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUserProfile writes profile columns and returns the updated row.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.Email, arg.Name, arg.Department, arg.Phone, arg.Avatar, arg.UpdatedAt, arg.ID,
	)
	return scanUser(row)
}

// UpdateUserPasswordParams replace a password hash.
type UpdateUserPasswordParams struct {
	ID           string
	PasswordHash string
	UpdatedAt    time.Time
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateUserPassword replaces the stored hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	res, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

// UpdateUserLastLogin stamps a successful sign-in.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, at, id)
	return err
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, email`

// ListUsers returns every user, oldest first.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}
