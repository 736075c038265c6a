// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/vetpl-go/internal/model"
)

func TestBlankLinesRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no blank lines", "line1\nline2\nline3", "line1\nline2\nline3"},
		{"one blank line", "line1\n\nline2", "line1\nline2"},
		{"multiple blank lines", "line1\n\n\n\n\nline2", "line1\nline2"},
		{"blank lines with spaces", "line1\n  \n\t\nline2", "line1\nline2"},
		{"windows line endings", "line1\r\n\r\n\r\nline2", "line1\nline2"},
		{"mixed line endings", "line1\n\r\n\nline2", "line1\nline2"},
		{"blank lines at start", "\n\n\nline1\nline2", "\nline1\nline2"},
		{"blank lines at end", "line1\nline2\n\n\n", "line1\nline2\n"},
		{"empty input", "", ""},
		{"html with blank lines", "<div>\n\n\n<p>text</p>\n\n\n</div>", "<div>\n<p>text</p>\n</div>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(blankLinesRegex.ReplaceAll([]byte(tt.input), []byte("\n")))
			if got != tt.expected {
				t.Errorf("blankLinesRegex.ReplaceAll(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "base"}}<title>{{.Title}} | {{.SiteName}}</title>` +
				`{{if .Flash}}<p class="{{.FlashType}}">{{.Flash}}</p>{{end}}` +
				`{{block "body" .}}{{template "content" .}}{{end}}{{end}}`)},
		"layouts/dashboard.html": {Data: []byte(
			`{{define "body"}}<aside>{{if .User}}{{.User.Name}}{{end}}</aside>{{template "content" .}}{{end}}`)},
		"partials/hello.html":   {Data: []byte(`{{define "hello"}}hi {{.}}{{end}}`)},
		"public/home.html":      {Data: []byte(`{{define "content"}}<main>{{template "hello" .Data}}</main>{{end}}`)},
		"auth/login.html":       {Data: []byte(`{{define "content"}}<form></form>{{end}}`)},
		"dashboard/home.html":   {Data: []byte(`{{define "content"}}<section>{{money .Data}}</section>{{end}}`)},
		"dashboard/readme.txt":  {Data: []byte(`ignored`)},
	}
}

func TestNewParsesGroups(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS(), SiteName: "Acme"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, name := range []string{"public/home", "auth/login", "dashboard/home"} {
		if !r.Has(name) {
			t.Errorf("template %s not parsed", name)
		}
	}
	if r.Has("dashboard/readme") {
		t.Error("non-html file parsed")
	}
}

func TestRenderStatus(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS(), SiteName: "Acme"})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	if err := r.RenderStatus(w, req, http.StatusForbidden, "public/home", TemplateData{Title: "Home", Data: "there"}); err != nil {
		t.Fatalf("RenderStatus() error = %v", err)
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<title>Home | Acme</title>") || !strings.Contains(body, "hi there") {
		t.Errorf("body = %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderDashboardLayout(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	data := TemplateData{User: &model.User{Name: "Jane"}, Data: decimal.NewFromInt(54231)}
	if err := r.Render(w, req, "dashboard/home", data); err != nil {
		t.Fatal(err)
	}
	if body := w.Body.String(); !strings.Contains(body, "<aside>Jane</aside><section>$54,231</section>") {
		t.Errorf("body = %q", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(w, req, "public/missing", TemplateData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTemplateFuncs(t *testing.T) {
	funcs := (&Renderer{}).TemplateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	if got := formatDate(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)); got != "Mar 15, 2025" {
		t.Errorf("formatDate() = %q", got)
	}
	if got := formatDate(time.Time{}); got != "" {
		t.Errorf("formatDate(zero) = %q", got)
	}

	truncate := funcs["truncate"].(func(string, int) string)
	if got := truncate("héllo world", 5); got != "héllo..." {
		t.Errorf("truncate() = %q", got)
	}

	can := funcs["can"].(func(*model.User, string) bool)
	if can(nil, model.PermViewDashboard) {
		t.Error("can(nil) = true")
	}
	if !can(&model.User{Role: model.RoleAdmin}, model.PermManageUsers) {
		t.Error("admin cannot manage users")
	}

	navActive := funcs["navActive"].(func(string, string) bool)
	if !navActive("/careers/1/apply", "/careers") || navActive("/about", "/") {
		t.Error("navActive mismatch")
	}

	percent := funcs["percent"].(func(decimal.Decimal) string)
	if got := percent(decimal.RequireFromString("3.2")); got != "3.2%" {
		t.Errorf("percent() = %q", got)
	}

	if _, ok := funcs["safeHTML"].(func(string) template.HTML); !ok {
		t.Error("safeHTML missing")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromInt(0), "$0"},
		{decimal.NewFromInt(999), "$999"},
		{decimal.NewFromInt(1000), "$1,000"},
		{decimal.NewFromInt(54231), "$54,231"},
		{decimal.NewFromInt(1234567), "$1,234,567"},
		{decimal.RequireFromString("-1500.6"), "-$1,501"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
