// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for sessions, route guards,
// and request context handling.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser  ContextKey = "user"
	ContextKeyStore ContextKey = "session_store"
)

// Session creates middleware that attaches the visitor's session.Store and
// client details to the request, and loads the signed-in user if any.
// It must run inside sm.LoadAndSave.
func Session(sm *scs.SessionManager, authService *auth.Service, namespace string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			st := session.NewStore(sm, namespace, logger)

			ctx = auth.WithRequestInfo(ctx, auth.RequestInfo{
				SessionKey: sm.Token(ctx),
				IP:         ClientIP(r),
				UserAgent:  r.UserAgent(),
			})
			ctx = context.WithValue(ctx, ContextKeyStore, st)

			if user := authService.Current(ctx, st); user != nil {
				ctx = context.WithValue(ctx, ContextKeyUser, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StoreFromContext returns the session store attached by Session, or nil.
func StoreFromContext(ctx context.Context) *session.Store {
	st, _ := ctx.Value(ContextKeyStore).(*session.Store)
	return st
}

// GetStore returns the request's session store, or nil.
func GetStore(r *http.Request) *session.Store {
	return StoreFromContext(r.Context())
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is signed in.
func GetUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(ContextKeyUser).(*model.User)
	return user
}

// GetUserID returns the current user's ID, or "" if not signed in.
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}

// WithUser returns a copy of r carrying user. Handlers use it after a
// profile update so the rest of the request sees the new values.
func WithUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
}
