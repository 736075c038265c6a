// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:         "1",
		Email:      "admin@company.com",
		Name:       "Admin User",
		Role:       model.RoleAdmin,
		Department: "Management",
		Phone:      "+1 (555) 123-4567",
		Avatar:     model.AvatarURL("Admin"),
		Active:     true,
		CreatedAt:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func newTestStore() (*Store, *MemoryStorage) {
	storage := NewMemoryStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(storage, "company", logger), storage
}

func TestStoreKeys(t *testing.T) {
	s, _ := newTestStore()
	assert.Equal(t, "company_user", s.UserKey())
	assert.Equal(t, "company_token", s.TokenKey())

	def := NewStore(NewMemoryStorage(), "", nil)
	assert.Equal(t, DefaultNamespace+"_user", def.UserKey())
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, storage := newTestStore()

	want := testUser()
	require.NoError(t, s.Save(ctx, want, "demo-token"))

	got, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "demo-token", got.Token)
	assert.Equal(t, want, got.User)

	raw := storage.GetString(ctx, s.UserKey())
	assert.NotContains(t, strings.ToLower(raw), "password")
	assert.NotContains(t, raw, "demo-token", "token must be stored separately from the user")
}

func TestStoreLoadAbsent(t *testing.T) {
	s, _ := newTestStore()
	got, ok := s.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStoreLoadCorruptEntriesAreCleared(t *testing.T) {
	tests := []struct {
		name  string
		user  string
		token string
	}{
		{"invalid json", "{not-json", "tok"},
		{"user without token", `{"id":"1","email":"a@b.co"}`, ""},
		{"token without user", "", "tok"},
		{"user missing identity", `{"name":"nobody"}`, "tok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, storage := newTestStore()
			if tt.user != "" {
				storage.Put(ctx, s.UserKey(), tt.user)
			}
			if tt.token != "" {
				storage.Put(ctx, s.TokenKey(), tt.token)
			}

			got, ok := s.Load(ctx)
			assert.False(t, ok)
			assert.Nil(t, got)
			assert.Equal(t, 0, storage.Len(), "corrupt entries must be removed")
		})
	}
}

func TestStoreSaveRejectsIncomplete(t *testing.T) {
	ctx := context.Background()
	s, storage := newTestStore()

	err := s.Save(ctx, nil, "tok")
	assert.True(t, errors.Is(err, ErrIncompleteSession))

	err = s.Save(ctx, testUser(), "")
	assert.True(t, errors.Is(err, ErrIncompleteSession))

	assert.Equal(t, 0, storage.Len())
}

func TestStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, storage := newTestStore()
	require.NoError(t, s.Save(ctx, testUser(), "tok"))

	s.Clear(ctx)
	s.Clear(ctx)

	_, ok := s.Load(ctx)
	assert.False(t, ok)
	assert.Equal(t, 0, storage.Len())
}

func TestStoreSidebarPreference(t *testing.T) {
	ctx := context.Background()
	s, storage := newTestStore()

	assert.False(t, s.SidebarCollapsed(ctx))
	s.SetSidebarCollapsed(ctx, true)
	assert.True(t, s.SidebarCollapsed(ctx))
	assert.Equal(t, "true", storage.GetString(ctx, SidebarKey))
	s.SetSidebarCollapsed(ctx, false)
	assert.Equal(t, "false", storage.GetString(ctx, SidebarKey))

	// The preference is unrelated to auth state.
	s.Clear(ctx)
	assert.Equal(t, "false", storage.GetString(ctx, SidebarKey))
}

func TestStoreConcurrentSaveLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.Save(ctx, testUser(), "tok")
			s.Clear(ctx)
		}
	}()

	for i := 0; i < 200; i++ {
		if sess, ok := s.Load(ctx); ok {
			require.NotNil(t, sess.User)
			require.NotEmpty(t, sess.Token)
		}
	}
	<-done
}
