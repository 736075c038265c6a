// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/olegiv/vetpl-go/internal/model"
)

// DefaultNamespace prefixes the user and token keys.
const DefaultNamespace = "company"

// SidebarKey holds the dashboard sidebar preference ("true" or "false").
const SidebarKey = "sidebarCollapsed"

// ErrIncompleteSession is returned by Save when the user or the token is missing.
var ErrIncompleteSession = errors.New("session requires both user and token")

// Storage is the key/value backend of a Store.
// *scs.SessionManager satisfies it.
type Storage interface {
	GetString(ctx context.Context, key string) string
	Put(ctx context.Context, key string, val any)
	Remove(ctx context.Context, key string)
}

// Session is the persisted belief about who is signed in.
type Session struct {
	User  *model.User
	Token string
}

// Store persists the current user and token under namespaced keys.
// A user is present if and only if a token is present.
type Store struct {
	storage   Storage
	namespace string
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewStore creates a Store over storage. An empty namespace uses DefaultNamespace.
func NewStore(storage Storage, namespace string, logger *slog.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, namespace: namespace, logger: logger}
}

// UserKey returns the key holding the JSON-encoded user.
func (s *Store) UserKey() string { return s.namespace + "_user" }

// TokenKey returns the key holding the opaque token.
func (s *Store) TokenKey() string { return s.namespace + "_token" }

// Load reads the session. Absent, corrupt or half-written entries are
// reported as absent; corrupt entries are cleared.
func (s *Store) Load(ctx context.Context) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawUser := s.storage.GetString(ctx, s.UserKey())
	token := s.storage.GetString(ctx, s.TokenKey())

	if rawUser == "" && token == "" {
		return nil, false
	}

	if rawUser == "" || token == "" {
		s.logger.Warn("clearing incomplete session",
			"has_user", rawUser != "",
			"has_token", token != "")
		s.clearLocked(ctx)
		return nil, false
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.Warn("clearing corrupt session", "error", err)
		s.clearLocked(ctx)
		return nil, false
	}
	if user.ID == "" || user.Email == "" {
		s.logger.Warn("clearing session with invalid user record")
		s.clearLocked(ctx)
		return nil, false
	}

	return &Session{User: &user, Token: token}, true
}

// Save writes user and token. Both are encoded before either key is
// touched, so readers never observe one without the other.
func (s *Store) Save(ctx context.Context, user *model.User, token string) error {
	if user == nil || token == "" {
		return ErrIncompleteSession
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.storage.Put(ctx, s.UserKey(), string(data))
	s.storage.Put(ctx, s.TokenKey(), token)
	return nil
}

// Clear removes the user and token. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) {
	s.storage.Remove(ctx, s.UserKey())
	s.storage.Remove(ctx, s.TokenKey())
}

// SidebarCollapsed returns the stored sidebar preference.
func (s *Store) SidebarCollapsed(ctx context.Context) bool {
	return s.storage.GetString(ctx, SidebarKey) == "true"
}

// SetSidebarCollapsed stores the sidebar preference.
func (s *Store) SetSidebarCollapsed(ctx context.Context, collapsed bool) {
	v := "false"
	if collapsed {
		v = "true"
	}
	s.storage.Put(ctx, SidebarKey, v)
}

// MemoryStorage is an in-process Storage. It ignores the context, so every
// caller shares one session.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

// GetString returns the value at key or "".
func (m *MemoryStorage) GetString(_ context.Context, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key]
}

// Put stores val at key. Non-string values are ignored.
func (m *MemoryStorage) Put(_ context.Context, key string, val any) {
	s, ok := val.(string)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = s
}

// Remove deletes key.
func (m *MemoryStorage) Remove(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
