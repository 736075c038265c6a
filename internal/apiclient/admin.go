// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/olegiv/vetpl-go/internal/model"
)

// ErrInvalidStatus is returned for an unknown application status.
var ErrInvalidStatus = errors.New("invalid application status")

// DefaultPageSize is the page size of application listings.
const DefaultPageSize = 20

// ApplicationFilter narrows an application listing.
type ApplicationFilter struct {
	Skip       int
	Limit      int
	Department string
	Status     model.ApplicationStatus
}

func (f ApplicationFilter) query() url.Values {
	q := url.Values{}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	skip := max(f.Skip, 0)
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	if f.Department != "" {
		q.Set("department", f.Department)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

// ApplicationUpdate changes the review state of an application.
type ApplicationUpdate struct {
	Status     model.ApplicationStatus `json:"status,omitempty"`
	Department *string                 `json:"department,omitempty"`
}

// ListApplications returns one page of applications. Requires an admin token.
func (c *Client) ListApplications(ctx context.Context, f ApplicationFilter) ([]model.Application, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	var apps []model.Application
	err := c.do(ctx, call{
		endpoint: "applications_list",
		method:   http.MethodGet,
		path:     "/applications",
		query:    f.query(),
		authed:   true,
	}, &apps)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []model.Application{}
	}
	return apps, nil
}

// GetApplication fetches one application by numeric id.
func (c *Client) GetApplication(ctx context.Context, id int64) (*model.Application, error) {
	var app model.Application
	err := c.do(ctx, call{
		endpoint: "applications_get",
		method:   http.MethodGet,
		path:     "/applications/" + strconv.FormatInt(id, 10),
		authed:   true,
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplication patches an application's status or department.
func (c *Client) UpdateApplication(ctx context.Context, id int64, upd ApplicationUpdate) (*model.Application, error) {
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, upd.Status)
	}
	var app model.Application
	err := c.do(ctx, call{
		endpoint: "applications_update",
		method:   http.MethodPatch,
		path:     "/applications/" + strconv.FormatInt(id, 10),
		body:     jsonBody(upd),
		authed:   true,
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApplication removes an application.
func (c *Client) DeleteApplication(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		endpoint: "applications_delete",
		method:   http.MethodDelete,
		path:     "/applications/" + strconv.FormatInt(id, 10),
		authed:   true,
	}, nil)
}

// StatsResult is the outcome of ApplicationStats.
type StatsResult struct {
	Stats    model.ApplicationStats
	Fallback bool
	Cause    error
}

// ApplicationStats returns application counts. An unauthorized response is
// returned as an error; any other failure is served from fallback data.
func (c *Client) ApplicationStats(ctx context.Context) (StatsResult, error) {
	var stats model.ApplicationStats
	err := c.do(ctx, call{
		endpoint: "applications_stats",
		method:   http.MethodGet,
		path:     "/applications/stats",
		authed:   true,
	}, &stats)
	if errors.Is(err, ErrUnauthorized) {
		return StatsResult{}, err
	}
	if err != nil {
		c.logger.Warn("using fallback application stats", "error", err)
		c.metrics.IncFallback("applications_stats")
		return StatsResult{Stats: c.fallback.stats(), Fallback: true, Cause: err}, nil
	}
	return StatsResult{Stats: stats}, nil
}
