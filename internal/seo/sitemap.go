// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the crawler-facing documents of the public site:
// sitemap.xml and robots.txt.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the site.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// URL is a single sitemap entry.
type URL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Sitemap collects the public URLs of the site. Paths are deduplicated.
type Sitemap struct {
	siteURL string
	urls    []URL
	seen    map[string]bool
}

// NewSitemap creates a sitemap for the site rooted at siteURL.
func NewSitemap(siteURL string) *Sitemap {
	return &Sitemap{
		siteURL: strings.TrimRight(siteURL, "/"),
		seen:    make(map[string]bool),
	}
}

// Add records path with the given frequency and priority. A zero lastMod
// is left out.
func (s *Sitemap) Add(path string, freq ChangeFreq, priority string, lastMod time.Time) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if s.seen[path] {
		return
	}
	s.seen[path] = true

	u := URL{Loc: s.siteURL + path, ChangeFreq: freq, Priority: priority}
	if path == "/" {
		u.Loc = s.siteURL + "/"
	}
	if !lastMod.IsZero() {
		u.LastMod = lastMod.UTC().Format("2006-01-02")
	}
	s.urls = append(s.urls, u)
}

// Len returns the number of entries.
func (s *Sitemap) Len() int { return len(s.urls) }

// Build renders the sitemap XML.
func (s *Sitemap) Build() ([]byte, error) {
	body, err := xml.MarshalIndent(urlSet{XMLNS: XMLNamespace, URLs: s.urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
