// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strconv"
)

// Pager links the neighbours of a page of results whose total size is
// unknown. A full page means there may be a next one.
type Pager struct {
	Page    int
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

// ParsePageParam extracts the page number from the request query.
// Returns 1 if not specified or invalid.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// BuildPager returns the pager of page, which returned n items out of
// perPage requested. baseURL is the list URL; query carries the active
// filters and is not modified.
func BuildPager(page, n, perPage int, baseURL string, query url.Values) Pager {
	if page < 1 {
		page = 1
	}
	p := Pager{
		Page:    page,
		HasPrev: page > 1,
		HasNext: perPage > 0 && n >= perPage,
	}
	if p.HasPrev {
		p.PrevURL = pageURL(baseURL, query, page-1)
	}
	if p.HasNext {
		p.NextURL = pageURL(baseURL, query, page+1)
	}
	return p
}

func pageURL(baseURL string, query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		if k != "page" {
			q[k] = v
		}
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return baseURL
	}
	return baseURL + "?" + q.Encode()
}
