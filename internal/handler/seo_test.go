// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/content"
)

func TestSitemap(t *testing.T) {
	lib, err := content.Default()
	require.NoError(t, err)
	h := NewSEOHandler(lib, &fakeListings{jobs: testJobs}, "https://vetpl.example", false, nil)

	rec := httptest.NewRecorder()
	h.Sitemap(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	body := rec.Body.String()
	contains(t, body,
		"<loc>https://vetpl.example/</loc>",
		"<loc>https://vetpl.example/about</loc>",
		"<loc>https://vetpl.example/careers</loc>",
		"<loc>https://vetpl.example/careers/2/apply</loc>",
	)
	assert.NotContains(t, body, "/index</loc>")
	assert.NotContains(t, body, "/dashboard")
}

func TestRobotsDerivesOrigin(t *testing.T) {
	lib, err := content.Default()
	require.NoError(t, err)

	tests := []struct {
		name        string
		disallowAll bool
		want        string
		notWant     string
	}{
		{"open", false, "Sitemap: http://example.com/sitemap.xml", "Disallow: /\n"},
		{"closed", true, "Disallow: /\n", "Sitemap:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSEOHandler(lib, nil, "", tt.disallowAll, nil)
			rec := httptest.NewRecorder()
			h.Robots(rec, httptest.NewRequest(http.MethodGet, "http://example.com/robots.txt", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), tt.notWant)
		})
	}
}
