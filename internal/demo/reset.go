// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package demo keeps public demo deployments fresh by periodically
// discarding the database so the demo accounts are seeded again.
package demo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// stampFile records when the database was last wiped.
const stampFile = ".last_demo_reset"

// Due reports whether more than interval has passed since the last wipe
// recorded in dataDir. A missing or unreadable stamp counts as due.
func Due(dataDir string, interval time.Duration, now time.Time) (bool, time.Time, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, stampFile))
	if errors.Is(err, os.ErrNotExist) {
		return true, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("reading reset stamp: %w", err)
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return true, time.Time{}, nil
	}
	last := time.Unix(sec, 0)
	return now.Sub(last) >= interval, last, nil
}

// ResetIfDue wipes the database at dbPath when the interval has elapsed.
// It reports whether a wipe happened. A zero interval disables it.
func ResetIfDue(dbPath, dataDir string, interval time.Duration, logger *slog.Logger) (bool, error) {
	if interval <= 0 {
		return false, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	due, last, err := Due(dataDir, interval, time.Now())
	if err != nil {
		return false, err
	}
	if !due {
		logger.Info("demo reset not needed",
			"last_reset", last.UTC().Format(time.RFC3339),
			"next_reset", last.Add(interval).UTC().Format(time.RFC3339))
		return false, nil
	}
	logger.Info("demo reset due, wiping database", "path", dbPath)
	return true, Reset(dbPath, dataDir)
}

// Reset deletes the SQLite database with its WAL and SHM files and stamps
// dataDir with the current time.
func Reset(dbPath, dataDir string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", dbPath+suffix, err)
		}
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	stamp := []byte(strconv.FormatInt(time.Now().UTC().Unix(), 10))
	if err := os.WriteFile(filepath.Join(dataDir, stampFile), stamp, 0644); err != nil {
		return fmt.Errorf("writing reset stamp: %w", err)
	}
	return nil
}
