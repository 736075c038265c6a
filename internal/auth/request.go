// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"

	"github.com/mileusna/useragent"
)

// RequestInfo describes the client behind an auth operation.
type RequestInfo struct {
	// SessionKey identifies the browser session for single-flight checks.
	SessionKey string
	IP         string
	UserAgent  string
}

type requestInfoKey struct{}

// WithRequestInfo attaches client details to ctx.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the client details attached to ctx.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// key is the single-flight key of an operation for this client.
func (i RequestInfo) key(op string) string {
	id := i.SessionKey
	if id == "" {
		id = i.IP
	}
	if id == "" {
		return ""
	}
	return op + ":" + id
}

// clientMetadata describes the browser for the audit trail.
func clientMetadata(info RequestInfo, country string) map[string]any {
	meta := map[string]any{}
	if info.UserAgent != "" {
		ua := useragent.Parse(info.UserAgent)
		browser, osName := ua.Name, ua.OS
		if browser == "" {
			browser = "Unknown"
		}
		if osName == "" {
			osName = "Unknown"
		}
		device := "desktop"
		switch {
		case ua.Mobile:
			device = "mobile"
		case ua.Tablet:
			device = "tablet"
		case ua.Bot:
			device = "bot"
		}
		meta["browser"] = browser
		meta["os"] = osName
		meta["device"] = device
	}
	if country != "" {
		meta["country"] = country
	}
	return meta
}
