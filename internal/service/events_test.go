// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/vetpl-go/internal/model"
)

func setupEventTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	// Matches the events table of the init migration.
	_, err = db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("failed to create events table: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*EventService, *sql.DB) {
	db := setupEventTestDB(t)
	return NewEventService(db, slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

func TestLogEvent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	err := svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", "u-1", "192.168.1.100", map[string]any{
		"browser": "Firefox",
	})
	if err != nil {
		t.Fatalf("LogAuthEvent failed: %v", err)
	}

	var level, category, userID, metadata, ip string
	err = db.QueryRow("SELECT level, category, user_id, metadata, ip_address FROM events").
		Scan(&level, &category, &userID, &metadata, &ip)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if level != model.EventLevelInfo || category != model.EventCategoryAuth {
		t.Errorf("level/category = %q/%q", level, category)
	}
	if userID != "u-1" || ip != "192.168.1.100" {
		t.Errorf("user/ip = %q/%q", userID, ip)
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metadata), &meta); err != nil || meta["browser"] != "Firefox" {
		t.Errorf("metadata = %q", metadata)
	}
}

func TestLogEventEmptyMetadata(t *testing.T) {
	svc, db := newTestService(t)

	if err := svc.LogSystemEvent(context.Background(), model.EventLevelWarning, "started", nil); err != nil {
		t.Fatalf("LogSystemEvent failed: %v", err)
	}
	var metadata string
	if err := db.QueryRow("SELECT metadata FROM events").Scan(&metadata); err != nil {
		t.Fatal(err)
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want {}", metadata)
	}
}

func TestCategoryHelpers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		log      func() error
		category string
	}{
		{"user", func() error { return svc.LogUserEvent(ctx, model.EventLevelInfo, "m", "", "", nil) }, model.EventCategoryUser},
		{"form", func() error { return svc.LogFormEvent(ctx, model.EventLevelInfo, "m", "", "", nil) }, model.EventCategoryForm},
		{"careers", func() error { return svc.LogCareersEvent(ctx, model.EventLevelInfo, "m", "", "", nil) }, model.EventCategoryCareers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.log(); err != nil {
				t.Fatal(err)
			}
			events, err := svc.ListEvents(ctx, tt.category, 10, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != 1 {
				t.Errorf("events in %s = %d, want 1", tt.category, len(events))
			}
		})
	}
}

func TestDeleteOldEvents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base.Add(-72 * time.Hour) }
	_ = svc.LogSystemEvent(ctx, model.EventLevelInfo, "old", nil)
	svc.now = func() time.Time { return base }
	_ = svc.LogSystemEvent(ctx, model.EventLevelInfo, "new", nil)

	n, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	left, _ := svc.ListEvents(ctx, "", 10, 0)
	if len(left) != 1 || left[0].Message != "new" {
		t.Errorf("remaining = %+v", left)
	}
}
