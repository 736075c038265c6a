// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content serves the public marketing pages. Each page is a markdown
// file with a YAML front matter block; the body is rendered with goldmark
// and sanitized before it reaches a template.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed pages/*.md
var embedded embed.FS

// ErrNotFound is returned for unknown page slugs.
var ErrNotFound = errors.New("page not found")

const frontMatterDelim = "---"

// Item is an entry of a page listing: a service, product, gallery image or
// testimonial.
type Item struct {
	Name     string   `yaml:"name"`
	Summary  string   `yaml:"summary"`
	Category string   `yaml:"category"`
	Image    string   `yaml:"image"`
	Link     string   `yaml:"link"`
	Author   string   `yaml:"author"`
	Role     string   `yaml:"role"`
	Features []string `yaml:"features"`
}

// Page is a rendered marketing page.
type Page struct {
	Slug        string `yaml:"-"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// Nav orders the page in the site menu. Zero keeps it out of the menu.
	Nav   int    `yaml:"nav"`
	Form  string `yaml:"form"`
	Items []Item `yaml:"items"`

	Body template.HTML `yaml:"-"`
}

// Library holds all pages, keyed by slug.
type Library struct {
	pages map[string]*Page
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer))
	policy   = bluemonday.UGCPolicy()
)

// Default loads the pages compiled into the binary.
func Default() (*Library, error) {
	sub, err := fs.Sub(embedded, "pages")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads every *.md file at the root of fsys. The file name without
// extension is the slug; "index" is the home page.
func Load(fsys fs.FS) (*Library, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading content dir: %w", err)
	}

	lib := &Library{pages: make(map[string]*Page)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		slug := strings.TrimSuffix(e.Name(), ".md")
		if !ValidSlug(slug) {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		page, err := Parse(slug, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		lib.pages[slug] = page
	}
	return lib, nil
}

// Parse renders one page. The front matter is optional.
func Parse(slug string, raw []byte) (*Page, error) {
	meta, body := splitFrontMatter(raw)

	page := &Page{}
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, page); err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
	}
	page.Slug = slug
	if page.Title == "" {
		page.Title = titleFromSlug(slug)
	}

	var buf bytes.Buffer
	if err := markdown.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	page.Body = template.HTML(policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
	return page, nil
}

// Get returns the page with slug.
func (l *Library) Get(slug string) (*Page, error) {
	p, ok := l.pages[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Nav returns the menu pages in menu order.
func (l *Library) Nav() []*Page {
	var out []*Page
	for _, p := range l.pages {
		if p.Nav > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Nav != out[j].Nav {
			return out[i].Nav < out[j].Nav
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// Slugs returns every page slug in lexical order.
func (l *Library) Slugs() []string {
	out := make([]string, 0, len(l.pages))
	for slug := range l.pages {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of pages.
func (l *Library) Len() int { return len(l.pages) }

// ValidSlug reports whether slug contains only [a-z0-9_-].
func ValidSlug(slug string) bool {
	if slug == "" {
		return false
	}
	for _, c := range slug {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

func splitFrontMatter(raw []byte) (meta, body []byte) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		return nil, []byte(text)
	}
	rest := text[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return nil, []byte(text)
	}
	meta = []byte(rest[:end])
	body = []byte(strings.TrimLeft(rest[end+len(frontMatterDelim)+1:], "\n"))
	return meta, body
}

func titleFromSlug(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
