// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/model"
)

// HTTPProvider is an IdentityProvider backed by the remote identity API.
// Credentials never touch local storage; the backend's access token
// becomes the session token.
type HTTPProvider struct {
	client *apiclient.Client
}

// NewHTTPProvider creates a provider over client.
func NewHTTPProvider(client *apiclient.Client) *HTTPProvider {
	return &HTTPProvider{client: client}
}

type loginResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
}

// mapError translates backend statuses into auth sentinels.
func mapError(err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidCredentials
	case http.StatusConflict:
		return ErrEmailExists
	case http.StatusNotFound:
		return ErrUserNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidation, apiErr.Message)
	}
	return err
}

// Authenticate implements IdentityProvider.
func (p *HTTPProvider) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	var resp loginResponse
	err := p.client.Call(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp, false)
	if err != nil {
		return nil, mapError(err)
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, errors.New("identity backend returned an incomplete login response")
	}
	if !resp.User.Active {
		return nil, ErrInvalidCredentials
	}
	resp.User.Role = model.ParseRole(string(resp.User.Role))
	return &Identity{User: &resp.User, Token: resp.AccessToken}, nil
}

// Register implements IdentityProvider.
func (p *HTTPProvider) Register(ctx context.Context, req NewUser) (*model.User, error) {
	var user model.User
	err := p.client.Call(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     req.Name,
		"email":    req.Email,
		"password": req.Password,
	}, &user, false)
	if err != nil {
		return nil, mapError(err)
	}
	user.Role = model.ParseRole(string(user.Role))
	return &user, nil
}

// UpdateProfile implements IdentityProvider.
func (p *HTTPProvider) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	body := map[string]string{}
	set := func(key string, v *string) {
		if v != nil {
			body[key] = *v
		}
	}
	set("name", upd.Name)
	set("email", upd.Email)
	set("phone", upd.Phone)
	set("department", upd.Department)
	set("avatar", upd.Avatar)

	var user model.User
	if err := p.client.Call(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), body, &user, true); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// ChangePassword implements IdentityProvider.
func (p *HTTPProvider) ChangePassword(ctx context.Context, id, current, next string) error {
	err := p.client.Call(ctx, http.MethodPost, "/users/"+url.PathEscape(id)+"/password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil, true)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, ErrInvalidCredentials) {
			return fmt.Errorf("current password: %w", err)
		}
		return err
	}
	return nil
}

// ListUsers implements IdentityProvider.
func (p *HTTPProvider) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := p.client.Call(ctx, http.MethodGet, "/users", nil, &users, true); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

var _ IdentityProvider = (*HTTPProvider)(nil)
