// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/service"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// eventCategories are the filterable categories.
var eventCategories = []string{
	model.EventCategoryAuth,
	model.EventCategoryUser,
	model.EventCategoryForm,
	model.EventCategoryCareers,
	model.EventCategorySystem,
	model.EventCategoryCache,
}

// EventView is an event row of the audit log.
type EventView struct {
	ID          int64
	Level       string
	Category    string
	Message     string
	UserID      string
	IPAddress   string
	Details     string // Formatted metadata as readable text
	DetailsLong bool   // True if details exceed display threshold
	CreatedAt   string
}

// EventsView is the template data of the events page.
type EventsView struct {
	Events     []EventView
	Category   string
	Categories []string
	Pager      Pager
}

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	views  *Views
	events *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(views *Views, events *service.EventService) *EventsHandler {
	return &EventsHandler{views: views, events: events}
}

// List handles GET /dashboard/admin/events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if !slices.Contains(eventCategories, category) {
		category = ""
	}
	page := ParsePageParam(r)

	events, err := h.events.ListEvents(r.Context(), category, EventsPerPage, (page-1)*EventsPerPage)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	view := EventsView{
		Category:   category,
		Categories: eventCategories,
		Pager:      BuildPager(page, len(events), EventsPerPage, "/dashboard/admin/events", q),
	}
	for _, e := range events {
		details := formatMetadata(e.Metadata)
		view.Events = append(view.Events, EventView{
			ID:          e.ID,
			Level:       e.Level,
			Category:    e.Category,
			Message:     e.Message,
			UserID:      e.UserID,
			IPAddress:   e.IPAddress,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
			CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	h.views.page(w, r, tmplEvents, "Event Log", view)
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/dashboard","error":"not found"} -> "error: not found, path: /dashboard"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata // Return as-is if not valid JSON
	}

	if len(data) == 0 {
		return ""
	}

	// Sort keys for consistent output order
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			// For nested objects, marshal back to JSON
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}
