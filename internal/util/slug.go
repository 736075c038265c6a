// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides string helpers shared by handlers and the API client:
// URL slugs for job anchors and upload filename sanitization.
package util

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks   = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify lower-cases s, strips accents and joins the remaining
// alphanumeric runs with single hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// JobAnchor returns a stable anchor for a job listing, e.g. "1-senior-frontend-developer".
func JobAnchor(id int, title string) string {
	if slug := Slugify(title); slug != "" {
		return fmt.Sprintf("%d-%s", id, slug)
	}
	return fmt.Sprintf("%d", id)
}
