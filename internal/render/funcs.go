// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/util"
)

// TemplateFuncs returns the custom template functions.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"truncate": func(s string, length int) string {
			runes := []rune(s)
			if len(runes) <= length {
				return s
			}
			return string(runes[:length]) + "..."
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
		"lower":     strings.ToLower,
		"join":      strings.Join,
		"hasPrefix": strings.HasPrefix,
		"contains":  slices.Contains[[]string],
		"money":     formatMoney,
		"jobAnchor": util.JobAnchor,
		"percent": func(d decimal.Decimal) string {
			return d.StringFixed(1) + "%"
		},
		"isAdmin": func(u *model.User) bool {
			return u.IsAdmin()
		},
		"can": func(u *model.User, perm string) bool {
			return u != nil && model.HasPermission(u.Role, perm)
		},
		"roleLabel": func(role model.Role) string {
			return role.Label()
		},
		"navActive": func(current, link string) bool {
			if link == "/" {
				return current == "/"
			}
			return current == link || strings.HasPrefix(current, link+"/")
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec // only for trusted template constants
		},
	}
}

// formatMoney renders an amount as "$54,231".
func formatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
