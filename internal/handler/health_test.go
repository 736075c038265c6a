// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/testutil"
	"github.com/olegiv/vetpl-go/internal/version"
)

type fakeBackend struct {
	err error
}

func (f fakeBackend) Health(context.Context) (*apiclient.Health, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &apiclient.Health{Status: "healthy", Service: "careers", Version: "2.1.0"}, nil
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		closeDB    bool
		backend    BackendChecker
		wantCode   int
		wantStatus string
	}{
		{"all healthy", false, fakeBackend{}, http.StatusOK, "healthy"},
		{"backend down", false, fakeBackend{err: apiclient.ErrNetwork}, http.StatusOK, "degraded"},
		{"no backend", false, nil, http.StatusOK, "degraded"},
		{"database down", true, fakeBackend{}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.TestMemoryDB(t)
			if tt.closeDB {
				require.NoError(t, db.Close())
			}
			h := NewHealthHandler(db, tt.backend, version.Info{Version: "1.2.3"})

			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var got HealthStatusPublic
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, version.AppName, got.App)
			assert.Equal(t, "1.2.3", got.Version)
			assert.NotContains(t, rec.Body.String(), "checks")
		})
	}
}

func TestHealthAdminDetails(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	h := NewHealthHandler(db, fakeBackend{err: errors.New("boom")}, version.Info{})

	req := httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil)
	req = middleware.WithUser(req, testutil.User(model.RoleAdmin))
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var got HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "degraded", got.Status)
	assert.Equal(t, "dev", got.Version)
	assert.Equal(t, "healthy", got.Checks["database"].Status)
	assert.Equal(t, "unhealthy", got.Checks["api"].Status)
	assert.Equal(t, apiclient.MsgGeneric, got.Checks["api"].Message)
	require.NotNil(t, got.System)
	assert.NotEmpty(t, got.System.GoVersion)
}

func TestLivenessAndReadiness(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	h := NewHealthHandler(db, nil, version.Info{})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	require.NoError(t, db.Close())
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
