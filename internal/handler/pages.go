// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vetpl-go/internal/content"
	"github.com/olegiv/vetpl-go/internal/forms"
)

// homeSlug is the content page served at "/".
const homeSlug = "index"

// PageView is the template data of a content page.
type PageView struct {
	Page *content.Page
	// Form is the lead form embedded below the page body, if any.
	Form *FormView
}

// PagesHandler serves the marketing pages.
type PagesHandler struct {
	views  *Views
	lib    *content.Library
	logger *slog.Logger
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(views *Views, lib *content.Library, logger *slog.Logger) *PagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PagesHandler{views: views, lib: lib, logger: logger}
}

// Home handles GET /.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, homeSlug, tmplHome)
}

// Page handles GET /{slug}.
func (h *PagesHandler) Page(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == homeSlug {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
		return
	}
	h.serve(w, r, slug, tmplPage)
}

func (h *PagesHandler) serve(w http.ResponseWriter, r *http.Request, slug, tmpl string) {
	page, err := h.lib.Get(slug)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			h.logger.Error("failed to load page", "slug", slug, "error", err)
		}
		h.views.NotFound().ServeHTTP(w, r)
		return
	}

	view := PageView{Page: page}
	if page.Form != "" {
		kind := forms.Resolve(page.Form, h.logger)
		fv := newFormView(forms.New(kind, ""), formAction(kind), nil)
		view.Form = &fv
	}
	h.views.page(w, r, tmpl, page.Title, view)
}
