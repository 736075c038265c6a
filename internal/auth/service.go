// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/olegiv/vetpl-go/internal/metrics"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/session"
	"github.com/olegiv/vetpl-go/internal/validation"
)

// EventRecorder writes auth events to the audit trail.
type EventRecorder interface {
	LogAuthEvent(ctx context.Context, level, message, userID, ipAddress string, metadata map[string]any) error
}

// CountryResolver maps a client IP to a country code.
type CountryResolver interface {
	Country(ip string) string
}

// Options configures a Service.
type Options struct {
	Provider IdentityProvider
	Issuer   *TokenIssuer
	// VerifyTokens makes Current reject sessions whose token Issuer cannot
	// verify. Leave it off when the provider hands out its own tokens.
	VerifyTokens bool
	Logger       *slog.Logger
	Events       EventRecorder
	Countries    CountryResolver
	Metrics      *metrics.Metrics
}

// Service is the single owner of who is signed in. Each operation acts on
// the caller's session.Store and keeps it consistent with the provider.
type Service struct {
	provider     IdentityProvider
	issuer       *TokenIssuer
	verifyTokens bool
	logger       *slog.Logger
	events       EventRecorder
	countries    CountryResolver
	metrics      *metrics.Metrics

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	s := &Service{
		provider:     opts.Provider,
		issuer:       opts.Issuer,
		verifyTokens: opts.VerifyTokens && opts.Issuer != nil,
		logger:       opts.Logger,
		events:       opts.Events,
		countries:    opts.Countries,
		metrics:      opts.Metrics,
		inflight:     make(map[string]struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Begin marks key as in flight. ok is false when it already is; the caller
// must then not run the operation. done clears the mark.
func (s *Service) Begin(key string) (done func(), ok bool) {
	if key == "" {
		return func() {}, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, false
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, true
}

// Loading reports whether key is in flight.
func (s *Service) Loading(key string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[key]
	return busy
}

// LoadingFor reports whether an auth operation of the client in ctx is in flight.
func (s *Service) LoadingFor(ctx context.Context) bool {
	info := RequestInfoFrom(ctx)
	for _, op := range []string{"login", "register", "profile", "password"} {
		if s.Loading(info.key(op)) {
			return true
		}
	}
	return false
}

func (s *Service) begin(ctx context.Context, op string) (func(), error) {
	done, ok := s.Begin(RequestInfoFrom(ctx).key(op))
	if !ok {
		return nil, ErrBusy
	}
	return done, nil
}

// record writes an auth event and counts it.
func (s *Service) record(ctx context.Context, event string, err error, userID string, extra map[string]any) {
	outcome := "success"
	level := model.EventLevelInfo
	if err != nil {
		outcome = "failure"
		level = model.EventLevelWarning
	}
	s.metrics.IncAuthEvent(event, outcome)

	if s.events == nil {
		return
	}
	info := RequestInfoFrom(ctx)
	country := ""
	if s.countries != nil {
		country = s.countries.Country(info.IP)
	}
	meta := clientMetadata(info, country)
	for k, v := range extra {
		meta[k] = v
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	msg := event + " " + outcome
	if recErr := s.events.LogAuthEvent(context.WithoutCancel(ctx), level, msg, userID, info.IP, meta); recErr != nil {
		s.logger.Debug("failed to record auth event", "event", event, "error", recErr)
	}
}

// Login authenticates email and password and stores the session. On
// failure the previous session is left as it was.
func (s *Service) Login(ctx context.Context, st *session.Store, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		s.record(ctx, "login", ErrInvalidCredentials, "", map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	done, err := s.begin(ctx, "login")
	if err != nil {
		return nil, err
	}
	defer done()

	id, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		s.record(ctx, "login", err, "", map[string]any{"email": email})
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Warn("login failed", "email", email, "ip", RequestInfoFrom(ctx).IP)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token := id.Token
	if token == "" {
		if s.issuer == nil {
			return nil, errors.New("no token issuer configured")
		}
		if token, err = s.issuer.Issue(id.User); err != nil {
			return nil, fmt.Errorf("issuing session token: %w", err)
		}
	}

	if err := st.Save(ctx, id.User, token); err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", id.User.ID, "role", id.User.Role)
	s.record(ctx, "login", nil, id.User.ID, nil)
	return id.User.Clone(), nil
}

// Register creates an account. It does not sign the user in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	req := NewUser{Name: strings.TrimSpace(name), Email: NormalizeEmail(email), Password: password}

	fe := validation.FieldErrors{}
	if len(req.Name) < 2 {
		fe["name"] = "Name is required"
	}
	if !validation.IsEmail(req.Email) {
		fe["email"] = "Please enter a valid email address"
	}
	if len(password) < MinPasswordLength {
		fe["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(fe) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, fe)
	}

	done, err := s.begin(ctx, "register")
	if err != nil {
		return nil, err
	}
	defer done()

	user, err := s.provider.Register(ctx, req)
	s.record(ctx, "register", err, "", map[string]any{"email": req.Email})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Logout clears the session. It is idempotent.
func (s *Service) Logout(ctx context.Context, st *session.Store) {
	sess, ok := st.Load(ctx)
	st.Clear(ctx)
	if ok {
		s.logger.Info("user logged out", "user_id", sess.User.ID)
		s.record(ctx, "logout", nil, sess.User.ID, nil)
	}
}

// Expire ends the session after the backend rejected its token. It is
// recorded apart from a user-initiated logout.
func (s *Service) Expire(ctx context.Context, st *session.Store) {
	sess, ok := st.Load(ctx)
	st.Clear(ctx)
	if ok {
		s.logger.Warn("backend rejected session token, signing out", "user_id", sess.User.ID)
		s.record(ctx, "session_expired", nil, sess.User.ID, nil)
	}
}

// UpdateProfile merges upd into the signed-in user and re-saves the session.
// ID and role are never changed here.
func (s *Service) UpdateProfile(ctx context.Context, st *session.Store, upd ProfileUpdate) (*model.User, error) {
	sess, ok := s.load(ctx, st)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	fe := validation.FieldErrors{}
	if upd.Name != nil && len(strings.TrimSpace(*upd.Name)) < 2 {
		fe["name"] = "Name is required"
	}
	if upd.Email != nil && !validation.IsEmail(*upd.Email) {
		fe["email"] = "Please enter a valid email address"
	}
	if upd.Phone != nil && strings.TrimSpace(*upd.Phone) != "" && !validation.IsPhone(*upd.Phone) {
		fe["phone"] = "Please enter a valid phone number"
	}
	if len(fe) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, fe)
	}

	done, err := s.begin(ctx, "profile")
	if err != nil {
		return nil, err
	}
	defer done()

	updated, err := s.provider.UpdateProfile(ctx, sess.User.ID, upd)
	if err != nil {
		s.logger.Warn("profile update failed", "user_id", sess.User.ID, "error", err)
		return nil, err
	}
	updated.ID = sess.User.ID
	updated.Role = sess.User.Role

	if err := st.Save(ctx, updated, sess.Token); err != nil {
		return nil, err
	}
	s.record(ctx, "profile_update", nil, updated.ID, nil)
	return updated.Clone(), nil
}

// ChangePassword replaces the signed-in user's password after verifying current.
func (s *Service) ChangePassword(ctx context.Context, st *session.Store, current, next string) error {
	sess, ok := s.load(ctx, st)
	if !ok {
		return ErrNotAuthenticated
	}
	if len(next) < MinPasswordLength {
		return fmt.Errorf("%w: %w", ErrValidation, validation.FieldErrors{
			"new_password": fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
		})
	}
	if next == current {
		return fmt.Errorf("%w: %w", ErrValidation, validation.FieldErrors{
			"new_password": "New password must differ from the current one",
		})
	}

	done, err := s.begin(ctx, "password")
	if err != nil {
		return err
	}
	defer done()

	err = s.provider.ChangePassword(ctx, sess.User.ID, current, next)
	s.record(ctx, "password_change", err, sess.User.ID, nil)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Warn("password change rejected", "user_id", sess.User.ID)
		}
		return err
	}
	return nil
}

// ListUsers returns the provider's users.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.provider.ListUsers(ctx)
}

// load returns the session, dropping it when its token no longer verifies.
func (s *Service) load(ctx context.Context, st *session.Store) (*session.Session, bool) {
	sess, ok := st.Load(ctx)
	if !ok {
		return nil, false
	}
	if s.verifyTokens {
		claims, err := s.issuer.Verify(sess.Token)
		if err != nil || claims.Subject != sess.User.ID {
			s.logger.Warn("session token rejected, signing out", "user_id", sess.User.ID, "error", err)
			st.Clear(ctx)
			return nil, false
		}
	}
	return sess, true
}

// Current returns the signed-in user, or nil.
func (s *Service) Current(ctx context.Context, st *session.Store) *model.User {
	sess, ok := s.load(ctx, st)
	if !ok {
		return nil
	}
	return sess.User
}

// Token returns the signed-in user's token.
func (s *Service) Token(ctx context.Context, st *session.Store) (string, bool) {
	sess, ok := s.load(ctx, st)
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// IsAuthenticated reports whether a user is signed in.
func (s *Service) IsAuthenticated(ctx context.Context, st *session.Store) bool {
	return s.Current(ctx, st) != nil
}

// IsAdmin reports whether the signed-in user is an admin.
func (s *Service) IsAdmin(ctx context.Context, st *session.Store) bool {
	return s.Current(ctx, st).IsAdmin()
}

// Role returns the signed-in user's role, or "" without a session.
func (s *Service) Role(ctx context.Context, st *session.Store) model.Role {
	if u := s.Current(ctx, st); u != nil {
		return u.Role
	}
	return ""
}

// Permissions returns the signed-in user's permissions, empty without a session.
func (s *Service) Permissions(ctx context.Context, st *session.Store) []string {
	if u := s.Current(ctx, st); u != nil {
		return model.Permissions(u.Role)
	}
	return []string{}
}

// HasPermission reports whether the signed-in user holds perm.
func (s *Service) HasPermission(ctx context.Context, st *session.Store, perm string) bool {
	u := s.Current(ctx, st)
	return u != nil && model.HasPermission(u.Role, perm)
}
