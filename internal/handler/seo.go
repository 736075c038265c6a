// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/vetpl-go/internal/content"
	"github.com/olegiv/vetpl-go/internal/seo"
)

// SEOHandler serves robots.txt and sitemap.xml.
type SEOHandler struct {
	lib      *content.Library
	listings Listings
	// siteURL is the canonical origin. Empty derives it from the request.
	siteURL     string
	disallowAll bool
	logger      *slog.Logger
}

// NewSEOHandler creates a new SEOHandler. With disallowAll set, crawlers
// are turned away from the whole site.
func NewSEOHandler(lib *content.Library, listings Listings, siteURL string, disallowAll bool, logger *slog.Logger) *SEOHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SEOHandler{lib: lib, listings: listings, siteURL: siteURL, disallowAll: disallowAll, logger: logger}
}

func (h *SEOHandler) origin(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(seo.Robots(seo.RobotsConfig{
		SiteURL:     h.origin(r),
		DisallowAll: h.disallowAll,
	})))
}

// Sitemap handles GET /sitemap.xml: the content pages, the contact and
// careers pages and one apply page per opening.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	sm := seo.NewSitemap(h.origin(r))
	sm.Add("/", seo.ChangeFreqWeekly, "1.0", time.Time{})
	for _, slug := range h.lib.Slugs() {
		if slug == homeSlug {
			continue
		}
		sm.Add("/"+slug, seo.ChangeFreqMonthly, "0.8", time.Time{})
	}
	sm.Add(contactPath, seo.ChangeFreqMonthly, "0.7", time.Time{})
	sm.Add(careersPath, seo.ChangeFreqDaily, "0.9", time.Time{})

	if h.listings != nil {
		for _, job := range h.listings.Jobs(r.Context()).Items {
			sm.Add("/careers/"+strconv.Itoa(job.ID)+"/apply", seo.ChangeFreqDaily, "0.6", time.Time{})
		}
	}

	out, err := sm.Build()
	if err != nil {
		h.logger.Error("building sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}
